package groups

import (
	"context"

	"github.com/dmitrijs2005/backoffice/internal/server/models"
)

// Repository is the group and membership store.
type Repository interface {
	List(ctx context.Context, skip, limit int) ([]*models.Group, error)
	GetByName(ctx context.Context, name string) (*models.Group, error)
	Create(ctx context.Context, name string) (*models.Group, error)

	// AddUsers is idempotent: existing memberships are left alone.
	AddUsers(ctx context.Context, groupID string, userIDs []string) error
	RemoveUsers(ctx context.Context, groupID string, userIDs []string) error

	// MembershipsFor returns the names of the groups userID belongs to,
	// empty for a user without memberships.
	MembershipsFor(ctx context.Context, userID string) ([]string, error)
}
