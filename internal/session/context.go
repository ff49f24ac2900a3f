package session

import "context"

type ctxKey int

const tokenKey ctxKey = iota // stores string, only for live sessions

// WithToken marks the request as carrying a live session token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the live session token, or "" when the request is
// unauthenticated.
func TokenFromContext(ctx context.Context) string {
	if v := ctx.Value(tokenKey); v != nil {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return ""
}
