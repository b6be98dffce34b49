// Package memory keeps users, groups and memberships in process memory.
// It backs the "memory" DSN used for local runs and end-to-end tests and
// behaves like the PostgreSQL repositories, error values included.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/google/uuid"
)

type state struct {
	users       map[string]*models.User // by id
	userByName  map[string]string
	groups      map[string]*models.Group // by id
	groupByName map[string]string
	members     map[string]map[string]struct{} // group id -> user ids
}

func newState() *state {
	return &state{
		users:       map[string]*models.User{},
		userByName:  map[string]string{},
		groups:      map[string]*models.Group{},
		groupByName: map[string]string{},
		members:     map[string]map[string]struct{}{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	maps.Copy(c.userByName, s.userByName)
	for id, g := range s.groups {
		cp := *g
		c.groups[id] = &cp
	}
	maps.Copy(c.groupByName, s.groupByName)
	for gid, set := range s.members {
		c.members[gid] = maps.Clone(set)
	}
	return c
}

// Store owns the data. Repositories returned by Users and Groups lock it per
// call; InTx holds the lock for the whole callback and restores a snapshot
// when the callback fails.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore returns a store seeded with the given group names.
func NewStore(seedGroups ...string) *Store {
	s := &Store{st: newState()}
	for _, name := range seedGroups {
		g := &models.Group{ID: uuid.NewString(), Name: name}
		s.st.groups[g.ID] = g
		s.st.groupByName[name] = g.ID
	}
	return s
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Groups() *GroupRepository {
	return &GroupRepository{s: s}
}

// InTx runs fn with repositories that see and mutate the store under a
// single write lock. Any error or panic from fn discards its changes.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, users *UserRepository, groups *GroupRepository) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, &UserRepository{s: s, inTx: true}, &GroupRepository{s: s, inTx: true})
}

func (s *Store) read(inTx bool, fn func(st *state)) {
	if !inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.st)
}

func (s *Store) write(inTx bool, fn func(st *state)) {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(s.st)
}
