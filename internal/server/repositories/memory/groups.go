package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/google/uuid"
)

// GroupRepository implements groups.Repository.
type GroupRepository struct {
	s    *Store
	inTx bool
}

func (r *GroupRepository) List(ctx context.Context, skip, limit int) ([]*models.Group, error) {
	var all []*models.Group
	r.s.read(r.inTx, func(st *state) {
		for _, g := range st.groups {
			cp := *g
			all = append(all, &cp)
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *GroupRepository) GetByName(ctx context.Context, name string) (*models.Group, error) {
	var g *models.Group
	r.s.read(r.inTx, func(st *state) {
		if id, ok := st.groupByName[name]; ok {
			cp := *st.groups[id]
			g = &cp
		}
	})
	if g == nil {
		return nil, common.ErrorNotFound
	}
	return g, nil
}

func (r *GroupRepository) Create(ctx context.Context, name string) (*models.Group, error) {
	var (
		g   *models.Group
		err error
	)
	r.s.write(r.inTx, func(st *state) {
		if _, ok := st.groupByName[name]; ok {
			err = fmt.Errorf("group %w", common.ErrorAlreadyExists)
			return
		}
		g = &models.Group{ID: uuid.NewString(), Name: name}
		cp := *g
		st.groups[g.ID] = &cp
		st.groupByName[name] = g.ID
	})
	return g, err
}

// AddUsers fails with a "db error" on unknown ids, mirroring the foreign
// keys of the SQL schema.
func (r *GroupRepository) AddUsers(ctx context.Context, groupID string, userIDs []string) error {
	var err error
	r.s.write(r.inTx, func(st *state) {
		if _, ok := st.groups[groupID]; !ok {
			err = fmt.Errorf("db error: unknown group %q", groupID)
			return
		}
		for _, uid := range userIDs {
			if _, ok := st.users[uid]; !ok {
				err = fmt.Errorf("db error: unknown user %q", uid)
				return
			}
		}
		set, ok := st.members[groupID]
		if !ok {
			set = map[string]struct{}{}
			st.members[groupID] = set
		}
		for _, uid := range userIDs {
			set[uid] = struct{}{}
		}
	})
	return err
}

func (r *GroupRepository) RemoveUsers(ctx context.Context, groupID string, userIDs []string) error {
	r.s.write(r.inTx, func(st *state) {
		set := st.members[groupID]
		for _, uid := range userIDs {
			delete(set, uid)
		}
	})
	return nil
}

func (r *GroupRepository) MembershipsFor(ctx context.Context, userID string) ([]string, error) {
	names := []string{}
	r.s.read(r.inTx, func(st *state) {
		for gid, set := range st.members {
			if _, ok := set[userID]; ok {
				names = append(names, st.groups[gid].Name)
			}
		}
	})
	sort.Strings(names)
	return names, nil
}
