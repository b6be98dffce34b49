// Package services contains server-side business logic. This file implements
// UserService: registration, login and self-service account changes.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/dmitrijs2005/backoffice/internal/server/auth"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/dmitrijs2005/backoffice/internal/server/rbac"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/repomanager"
)

const maxNameLength = 50

// TokenPair is the login response: an access token and its scheme.
type TokenPair struct {
	AccessToken string
	TokenType   string
}

// Profile is a user together with the groups it belongs to.
type Profile struct {
	User    *models.User
	Groups  []string
	IsAdmin bool
}

// UserService handles:
//   - Register: create users with a bcrypt password hash
//   - Login: verify credentials and mint an access token
//   - ChangePassword / ChangeName: allowed to the user itself or an admin
type UserService struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	memberships rbac.MembershipLookup
	isAdmin     rbac.Gate
	logger      logging.Logger
}

// NewUserService constructs a UserService. isAdmin should be a soft gate;
// it is only used to decide, never to reject on its own.
func NewUserService(m repomanager.RepositoryManager, tokens *auth.TokenService, memberships rbac.MembershipLookup, isAdmin rbac.Gate, logger logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		tokens:      tokens,
		memberships: memberships,
		isAdmin:     isAdmin.Soft(),
		logger:      logger.With("module", "users"),
	}
}

const dummyPassword = "unknown-user-placeholder"

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// unknownUserHash is compared against when the login name does not exist so
// both outcomes cost one bcrypt verification.
func unknownUserHash() string {
	dummyHashOnce.Do(func() {
		h, err := auth.HashPassword(dummyPassword)
		if err != nil {
			panic(fmt.Sprintf("building dummy password hash: %v", err))
		}
		dummyHash = h
	})
	return dummyHash
}

func validateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name must be 1..%d characters", common.ErrorValidation, maxNameLength)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
	}
	return nil
}

// Register creates a user and puts it into groups. The user and its
// memberships are written in one transaction, so an unknown group leaves no
// user behind. A taken name yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, name, password string, groups ...string) (*models.User, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		created, err := repos.Users().Create(ctx, &models.User{Name: name, PasswordHash: hash})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		for _, g := range groups {
			group, err := getGroup(ctx, repos, g)
			if err != nil {
				return err
			}
			if err := repos.Groups().AddUsers(ctx, group.ID, []string{created.ID}); err != nil {
				return err
			}
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created", "user", user.Name, "groups", groups)
	return user, nil
}

// Login checks name/password and returns a fresh access token. Any mismatch,
// unknown name included, is common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, name, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users().GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyPassword(password, unknownUserHash())
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.logger.Warn(ctx, "login failed", "user", name)
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueDefault(user.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &TokenPair{AccessToken: token, TokenType: common.TokenTypeBearer}, nil
}

// GetByName returns the named user or common.ErrorNotFound.
func (s *UserService) GetByName(ctx context.Context, name string) (*models.User, error) {
	user, err := s.repomanager.Users().GetUserByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", name, err)
	}
	return user, nil
}

// Me describes caller, including whether the admin gate admits it.
func (s *UserService) Me(ctx context.Context, caller *models.User) (*Profile, error) {
	groups, err := s.memberships.Memberships(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	isAdmin, err := s.isAdmin.Decide(groups)
	if err != nil {
		return nil, err
	}
	return &Profile{User: caller, Groups: groups.Names(), IsAdmin: isAdmin}, nil
}

// ChangePassword replaces the password of username after checking
// oldPassword against the stored one.
func (s *UserService) ChangePassword(ctx context.Context, caller *models.User, username, oldPassword, newPassword string) (*models.User, error) {
	if err := s.authorizeSelfOrAdmin(ctx, caller, username); err != nil {
		return nil, err
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	target, err := s.GetByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(oldPassword, target.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	updated, err := s.repomanager.Users().UpdatePassword(ctx, target.ID, hash)
	if err != nil {
		return nil, fmt.Errorf("error updating password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user", username, "by", caller.Name)
	return updated, nil
}

// ChangeName renames username to newName. Tokens issued for the old name
// stop resolving.
func (s *UserService) ChangeName(ctx context.Context, caller *models.User, username, newName string) (*models.User, error) {
	if err := s.authorizeSelfOrAdmin(ctx, caller, username); err != nil {
		return nil, err
	}
	if err := validateName(newName); err != nil {
		return nil, err
	}

	target, err := s.GetByName(ctx, username)
	if err != nil {
		return nil, err
	}

	updated, err := s.repomanager.Users().UpdateName(ctx, target.ID, newName)
	if err != nil {
		return nil, fmt.Errorf("error renaming user: %w", err)
	}

	s.logger.Info(ctx, "user renamed", "user", username, "new_name", newName, "by", caller.Name)
	return updated, nil
}

func (s *UserService) authorizeSelfOrAdmin(ctx context.Context, caller *models.User, username string) error {
	if caller.Name == username {
		return nil
	}
	ok, err := s.isAdmin.Check(ctx, s.memberships, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: only the user or an admin may change %q", common.ErrPermissionDenied, username)
	}
	return nil
}
