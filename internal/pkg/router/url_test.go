package router

import (
	"errors"
	"testing"
)

func TestURLResolverLiteralPath(t *testing.T) {
	resolver := NewURLResolver()

	got, err := resolver.Resolve("/twofactor/profile")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "/twofactor/profile" {
		t.Errorf("Resolve() = %q, want /twofactor/profile", got)
	}
}

func TestURLResolverNamedRoute(t *testing.T) {
	resolver := NewURLResolver()
	resolver.Register("twofactor:profile", "/api/v1/twofactor/profile")

	got, err := resolver.Resolve("twofactor:profile")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "/api/v1/twofactor/profile" {
		t.Errorf("Resolve() = %q, want /api/v1/twofactor/profile", got)
	}
}

func TestURLResolverNamedRouteWithParams(t *testing.T) {
	resolver := NewURLResolver()
	resolver.Register("twofactor:device", "/api/v1/twofactor/phones/:id")

	got, err := resolver.Resolve("twofactor:device", "id", "42")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "/api/v1/twofactor/phones/42" {
		t.Errorf("Resolve() = %q, want /api/v1/twofactor/phones/42", got)
	}

	if _, err := resolver.Resolve("twofactor:device"); !errors.Is(err, ErrMissingRouteParam) {
		t.Errorf("Resolve() error = %v, want ErrMissingRouteParam", err)
	}
}

func TestURLResolverUnknownName(t *testing.T) {
	resolver := NewURLResolver()

	if _, err := resolver.Resolve("does-not-exist"); !errors.Is(err, ErrUnknownRouteName) {
		t.Errorf("Resolve() error = %v, want ErrUnknownRouteName", err)
	}
}

func TestURLResolverLazyResolvesLate(t *testing.T) {
	resolver := NewURLResolver()
	lazy := resolver.Lazy("twofactor:profile")

	if _, err := lazy.Path(); !errors.Is(err, ErrUnknownRouteName) {
		t.Fatalf("Path() error = %v, want ErrUnknownRouteName before registration", err)
	}

	resolver.Register("twofactor:profile", "/api/v1/twofactor/profile")

	got, err := lazy.Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if got != "/api/v1/twofactor/profile" {
		t.Errorf("Path() = %q, want /api/v1/twofactor/profile", got)
	}
}
