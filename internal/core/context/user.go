// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the calling user identity for a request.
// Authentication itself happens outside the core; the HTTP layer fills
// this from headers and the worker fills it from job metadata.
type UserContext struct {
	UserID     string
	BusinessID string
	Email      string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetBusinessID returns the tenant business ID from context or empty string.
func GetBusinessID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.BusinessID
	}
	return ""
}
