package middleware

import (
	"net/http"

	"yellowbox/pkg/client"
)

// AuthForwarding copies the inbound Authorization header into the request
// context so downstream service clients can forward it. The header is never
// held in shared state; each request carries its own token.
func AuthForwarding() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "" {
				r = r.WithContext(client.WithAuthToken(r.Context(), auth))
			}
			next.ServeHTTP(w, r)
		})
	}
}
