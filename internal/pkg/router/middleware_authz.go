package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/dominichul/phonefactor/internal/pkg/jwt"
)

const adminRoutePrefix = "/api/v1/admin/"

// middlewareAuthorization enforces Casbin policies on admin routes. The
// subject is the authenticated user ID, the object is the matched route
// pattern, and the action is the HTTP method.
func middlewareAuthorization(enforcer casbin.IEnforcer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if enforcer == nil || !strings.HasPrefix(route, adminRoutePrefix) {
				next.ServeHTTP(w, r)
				return
			}

			claims := jwt.GetAuth(r.Context())
			if claims == nil {
				writeJSON(w, map[string]string{"message": "Authentication required"}, http.StatusUnauthorized)
				return
			}

			allowed, err := enforcer.Enforce(strconv.FormatInt(claims.UserID, 10), route, r.Method)
			if err != nil || !allowed {
				writeJSON(w, map[string]string{"message": "You do not have access to this resource"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
