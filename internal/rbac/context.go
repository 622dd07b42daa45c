package rbac

import "context"

// Grant is the resolved authorization context for an allowed request,
// threaded explicitly through the handler chain.
type Grant struct {
	UserID      int64
	ProjectID   *int64
	Required    []PermissionCode
	Permissions PermissionSet
}

type grantContextKey struct{}

// ContextWithGrant stores the grant in context.
func ContextWithGrant(ctx context.Context, grant Grant) context.Context {
	return context.WithValue(ctx, grantContextKey{}, grant)
}

// GrantFromContext extracts the grant from context.
func GrantFromContext(ctx context.Context) (Grant, bool) {
	grant, ok := ctx.Value(grantContextKey{}).(Grant)
	return grant, ok
}
