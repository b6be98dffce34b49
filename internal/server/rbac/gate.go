package rbac

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
)

// MembershipLookup is satisfied by *MembershipResolver.
type MembershipLookup interface {
	Memberships(ctx context.Context, userID string) (GroupSet, error)
}

// Gate is an immutable access rule: the caller must belong to at least one
// of the required groups. A hard gate turns a miss into
// common.ErrPermissionDenied; a soft gate reports false and lets the caller
// decide.
//
// Gates are built once at route registration. Extend and Soft return new
// values and never touch the receiver.
type Gate struct {
	required GroupSet
	hardFail bool
}

// NewGate builds a gate over groups.
func NewGate(groups []string, hardFail bool) Gate {
	return Gate{required: NewGroupSet(groups...), hardFail: hardFail}
}

// RequireAny is the common hard-failing gate.
func RequireAny(groups ...string) Gate {
	return NewGate(groups, true)
}

// Extend returns a gate that also admits groups.
func (g Gate) Extend(groups ...string) Gate {
	return Gate{required: g.required.Union(NewGroupSet(groups...)), hardFail: g.hardFail}
}

// Soft returns the informational variant of g.
func (g Gate) Soft() Gate {
	return Gate{required: g.required, hardFail: false}
}

// Required lists the admitted groups, sorted.
func (g Gate) Required() []string {
	return g.required.Names()
}

func (g Gate) HardFail() bool {
	return g.hardFail
}

// Decide applies the rule to an already-resolved group set.
func (g Gate) Decide(actual GroupSet) (bool, error) {
	if len(g.required.Intersect(actual)) > 0 {
		return true, nil
	}
	if g.hardFail {
		return false, fmt.Errorf("%w: requires one of %v", common.ErrPermissionDenied, g.Required())
	}
	return false, nil
}

// Check resolves user's memberships and decides. Store failures are returned
// as-is and are never turned into a denial.
func (g Gate) Check(ctx context.Context, memberships MembershipLookup, user *models.User) (bool, error) {
	actual, err := memberships.Memberships(ctx, user.ID)
	if err != nil {
		return false, err
	}
	return g.Decide(actual)
}
