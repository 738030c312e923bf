package client

import "context"

type contextKey string

const authTokenKey contextKey = "auth_token"

// WithAuthToken stores the caller's Authorization header value in the context
// so downstream service calls can forward it. The token always travels with
// the request context, never through process-wide state, keeping concurrent
// requests isolated.
func WithAuthToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, authTokenKey, token)
}

// AuthTokenFromContext returns the forwarded Authorization header value, or
// the empty string when the inbound request carried none.
func AuthTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(authTokenKey).(string); ok {
		return token
	}
	return ""
}
