package context

import (
	"context"
)

// UserInfo carries the authenticated user for the request.
type UserInfo struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

type userKey struct{}

// WithUser stores user info in context.
func WithUser(ctx context.Context, info *UserInfo) context.Context {
	return context.WithValue(ctx, userKey{}, info)
}

// GetUser returns user info from context, or nil.
func GetUser(ctx context.Context) *UserInfo {
	if info, ok := ctx.Value(userKey{}).(*UserInfo); ok {
		return info
	}
	return nil
}
