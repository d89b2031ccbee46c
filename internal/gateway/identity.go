package gateway

import "context"

type userContextKey struct{}

// WithUser returns a context carrying the authenticated user. The HTTP
// layer attaches it after the auth collaborator has resolved the session.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// ContextIdentity resolves the submitter from the request context. Requests
// without an attached user stay anonymous.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey{}).(User)
	return u, ok
}
