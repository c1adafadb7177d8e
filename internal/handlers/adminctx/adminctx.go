package adminctx

import (
	"context"
)

type ctxKey string

const adminKey ctxKey = "admin"

// Create a new context with the admin subject
func New(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminKey, subject)
}

// Extract the admin subject from the context
func FromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(adminKey).(string)
	return s, ok
}
