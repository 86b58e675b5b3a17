package user

import "context"

type contextKey struct{}

// NewContext returns a context carrying the resolved request identity.
// The auth middleware attaches it; handlers read it with FromContext.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext extracts the resolved user from the request context
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok
}
