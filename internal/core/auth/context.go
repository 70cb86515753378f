package auth

import (
	"context"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated user from the context. The
// second return value reports whether a user was present.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}
