package web

import (
	"net/http"

	"github.com/JonMunkholm/gamebook/internal/core"
)

// withClientIP copies the resolved client address into the request context
// so core components can log it without knowing about HTTP.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClientIP(r.Context(), r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
