package users

import (
	"context"

	"github.com/dmitrijs2005/backoffice/internal/server/models"
)

// Repository is the user store. Lookups of a missing user return
// common.ErrorNotFound; name collisions return common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	GetByGroup(ctx context.Context, groupName string) ([]*models.User, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash string) (*models.User, error)
	UpdateName(ctx context.Context, userID string, name string) (*models.User, error)
}
