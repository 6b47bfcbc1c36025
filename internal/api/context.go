package api

import (
	"context"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// UserFromContext extracts the authenticated user from context
func UserFromContext(ctx context.Context) *models.AuthUser {
	user, ok := ctx.Value(userContextKey).(*models.AuthUser)
	if !ok {
		return nil
	}
	return user
}

// ContextWithUser adds the authenticated user to context
func ContextWithUser(ctx context.Context, user *models.AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
