// Package middleware holds the HTTP middleware and Connect interceptors that
// sit between the listener and the handlers: request ids, logging, metrics,
// panic recovery, session resolution and route gates.
package middleware

import (
	"context"

	"github.com/mmynk/groupdo/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserKey is the context key for the authenticated *models.User.
	UserKey contextKey = "user"
	// RequestIDKey is the context key for the request id.
	RequestIDKey contextKey = "request_id"

	requestLogKey contextKey = "request_log"
)

// requestLog collects what inner middleware learns about a request for the
// access log line written by Logging.
type requestLog struct {
	user string
}

func requestLogFrom(ctx context.Context) *requestLog {
	rl, _ := ctx.Value(requestLogKey).(*requestLog)
	return rl
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFrom extracts the authenticated user from the context.
// Returns nil if the request is anonymous.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// RequestIDFrom extracts the request id from the context.
// Returns empty string if not found.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func username(ctx context.Context) string {
	if u := UserFrom(ctx); u != nil {
		return u.Username
	}
	return ""
}
