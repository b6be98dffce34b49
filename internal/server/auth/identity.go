package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
)

// UserFinder is the slice of the user store the resolver needs.
type UserFinder interface {
	GetUserByName(ctx context.Context, name string) (*models.User, error)
}

// IdentityResolver maps a validated token subject to a stored user.
type IdentityResolver struct {
	users UserFinder
}

func NewIdentityResolver(users UserFinder) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve returns the user named subject, common.ErrSubjectNotFound when the
// account no longer exists, or the store error otherwise.
func (r *IdentityResolver) Resolve(ctx context.Context, subject string) (*models.User, error) {
	user, err := r.users.GetUserByName(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: %q", common.ErrSubjectNotFound, subject)
		}
		return nil, fmt.Errorf("resolve subject: %w", err)
	}
	return user, nil
}
