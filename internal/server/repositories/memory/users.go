package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/google/uuid"
)

// UserRepository implements users.Repository.
type UserRepository struct {
	s    *Store
	inTx bool
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	var err error
	r.s.write(r.inTx, func(st *state) {
		if _, ok := st.userByName[user.Name]; ok {
			err = fmt.Errorf("user %w", common.ErrorAlreadyExists)
			return
		}
		now := time.Now().UTC()
		user.ID = uuid.NewString()
		user.CreatedAt = now
		user.UpdatedAt = now
		cp := *user
		st.users[cp.ID] = &cp
		st.userByName[cp.Name] = cp.ID
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	var user *models.User
	r.s.read(r.inTx, func(st *state) {
		if id, ok := st.userByName[name]; ok {
			cp := *st.users[id]
			user = &cp
		}
	})
	if user == nil {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByGroup(ctx context.Context, groupName string) ([]*models.User, error) {
	var result []*models.User
	r.s.read(r.inTx, func(st *state) {
		gid, ok := st.groupByName[groupName]
		if !ok {
			return
		}
		for uid := range st.members[gid] {
			cp := *st.users[uid]
			result = append(result, &cp)
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) (*models.User, error) {
	return r.update(userID, func(st *state, u *models.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *UserRepository) UpdateName(ctx context.Context, userID string, name string) (*models.User, error) {
	return r.update(userID, func(st *state, u *models.User) error {
		if name == u.Name {
			return nil
		}
		if _, taken := st.userByName[name]; taken {
			return fmt.Errorf("user %w", common.ErrorAlreadyExists)
		}
		delete(st.userByName, u.Name)
		st.userByName[name] = u.ID
		u.Name = name
		return nil
	})
}

func (r *UserRepository) update(userID string, fn func(st *state, u *models.User) error) (*models.User, error) {
	var (
		out *models.User
		err error
	)
	r.s.write(r.inTx, func(st *state) {
		u, ok := st.users[userID]
		if !ok {
			err = common.ErrorNotFound
			return
		}
		if err = fn(st, u); err != nil {
			return
		}
		u.UpdatedAt = time.Now().UTC()
		cp := *u
		out = &cp
	})
	return out, err
}
