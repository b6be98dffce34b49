package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/repomanager"
)

// Paging defaults for List.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// GroupService manages groups and their members. Authorization is the
// caller's job; every method assumes an admin is asking.
type GroupService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewGroupService(m repomanager.RepositoryManager, logger logging.Logger) *GroupService {
	return &GroupService{repomanager: m, logger: logger.With("module", "groups")}
}

func (s *GroupService) List(ctx context.Context, skip, limit int) ([]*models.Group, error) {
	if skip < 0 || limit < 0 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: skip must be >= 0 and limit 0..%d", common.ErrorValidation, MaxListLimit)
	}
	groups, err := s.repomanager.Groups().List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing groups: %w", err)
	}
	return groups, nil
}

// Create adds a new, empty group.
func (s *GroupService) Create(ctx context.Context, name string) (*models.Group, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	g, err := s.repomanager.Groups().Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error creating group: %w", err)
	}
	s.logger.Info(ctx, "group created", "group", name)
	return g, nil
}

// UsersInGroup lists the members of groupName, which must exist.
func (s *GroupService) UsersInGroup(ctx context.Context, groupName string) ([]*models.User, error) {
	if _, err := getGroup(ctx, s.repomanager, groupName); err != nil {
		return nil, err
	}
	users, err := s.repomanager.Users().GetByGroup(ctx, groupName)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// AddUsers puts every named user into groupName. Either all are added or,
// when the group or any user is missing, none are.
func (s *GroupService) AddUsers(ctx context.Context, groupName string, usernames []string) error {
	err := s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		group, ids, err := resolveMembers(ctx, repos, groupName, usernames)
		if err != nil {
			return err
		}
		return repos.Groups().AddUsers(ctx, group.ID, ids)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "users added to group", "group", groupName, "users", usernames)
	return nil
}

// RemoveUsers drops the named users from groupName with the same
// all-or-nothing rule as AddUsers.
func (s *GroupService) RemoveUsers(ctx context.Context, groupName string, usernames []string) error {
	err := s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		group, ids, err := resolveMembers(ctx, repos, groupName, usernames)
		if err != nil {
			return err
		}
		return repos.Groups().RemoveUsers(ctx, group.ID, ids)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "users removed from group", "group", groupName, "users", usernames)
	return nil
}

func getGroup(ctx context.Context, repos repomanager.Repositories, name string) (*models.Group, error) {
	g, err := repos.Groups().GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", name, err)
	}
	return g, nil
}

func resolveMembers(ctx context.Context, repos repomanager.Repositories, groupName string, usernames []string) (*models.Group, []string, error) {
	if len(usernames) == 0 {
		return nil, nil, fmt.Errorf("%w: usernames must not be empty", common.ErrorValidation)
	}

	group, err := getGroup(ctx, repos, groupName)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(usernames))
	for _, name := range usernames {
		u, err := repos.Users().GetUserByName(ctx, name)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, nil, fmt.Errorf("user %s: %w", name, err)
			}
			return nil, nil, fmt.Errorf("error loading user: %w", err)
		}
		ids = append(ids, u.ID)
	}
	return group, ids, nil
}
