package rbac

import (
	"context"
	"fmt"
)

// MembershipStore lists the group names a user belongs to. A user without
// memberships yields an empty slice, not an error.
type MembershipStore interface {
	MembershipsFor(ctx context.Context, userID string) ([]string, error)
}

// MembershipResolver turns store rows into a GroupSet. Nothing is cached:
// every call hits the store so membership changes apply on the next request.
type MembershipResolver struct {
	store MembershipStore
}

func NewMembershipResolver(store MembershipStore) *MembershipResolver {
	return &MembershipResolver{store: store}
}

func (r *MembershipResolver) Memberships(ctx context.Context, userID string) (GroupSet, error) {
	names, err := r.store.MembershipsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("memberships for %s: %w", userID, err)
	}
	return NewGroupSet(names...), nil
}
