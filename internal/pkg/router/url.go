package router

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownRouteName indicates the route name was never registered.
	ErrUnknownRouteName = errors.New("router: unknown route name")
	// ErrMissingRouteParam indicates a path parameter was not supplied.
	ErrMissingRouteParam = errors.New("router: missing route parameter")
)

// URLResolver maps route names to path patterns so redirect targets can
// be configured by name instead of by literal path.
type URLResolver struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewURLResolver returns an empty resolver.
func NewURLResolver() *URLResolver {
	return &URLResolver{paths: make(map[string]string)}
}

// Register binds a route name to a path pattern. Patterns may contain
// httprouter-style ":param" segments.
func (u *URLResolver) Register(name, pattern string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths[name] = pattern
}

// Resolve turns a redirect target into a concrete URL path. A target
// beginning with "/" is treated as a literal path and returned as-is;
// anything else is looked up as a registered route name. The kv pairs
// fill ":param" segments in the named pattern.
func (u *URLResolver) Resolve(target string, kv ...string) (string, error) {
	if strings.HasPrefix(target, "/") {
		return target, nil
	}

	u.mu.RLock()
	pattern, ok := u.paths[target]
	u.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRouteName, target)
	}

	params := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}

	segments := strings.Split(pattern, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		value, found := params[segment[1:]]
		if !found {
			return "", fmt.Errorf("%w: %s in %s", ErrMissingRouteParam, segment[1:], pattern)
		}
		segments[i] = value
	}
	return strings.Join(segments, "/"), nil
}

// Lazy returns a reference that resolves the target on each call rather
// than at registration time, so routes registered later still resolve.
func (u *URLResolver) Lazy(target string, kv ...string) *LazyURL {
	return &LazyURL{resolver: u, target: target, kv: kv}
}

// LazyURL defers route name resolution until the path is needed.
type LazyURL struct {
	resolver *URLResolver
	target   string
	kv       []string
}

// Path resolves the target against the current route registry.
func (l *LazyURL) Path() (string, error) {
	return l.resolver.Resolve(l.target, l.kv...)
}
