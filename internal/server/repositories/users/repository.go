package users

import (
	"context"

	"github.com/avolkovs/pennywise/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrAlreadyExists when the username is taken.
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}
