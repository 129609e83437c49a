package httpx

import "context"

// Principal identifies the authenticated user for the duration of a request.
// It is derived from decoded session-token claims after the block check has
// passed; handlers can trust it without re-consulting the store.
type Principal struct {
	UserID   string
	Email    string
	Username string
	Admin    bool
}

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}
