package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/dmitrijs2005/backoffice/internal/server/auth"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/dmitrijs2005/backoffice/internal/server/rbac"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/groups"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	rm     *repomanager.InMemoryRepositoryManager
	tokens *auth.TokenService
	users  *UserService
	groups *GroupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()
	tokens, err := auth.NewTokenService([]byte("test-secret"), "HS256", time.Minute)
	require.NoError(t, err)
	resolver := rbac.NewMembershipResolver(rm.Groups())
	return &fixture{
		rm:     rm,
		tokens: tokens,
		users:  NewUserService(rm, tokens, resolver, rbac.RequireAny(models.GroupAdmin), logging.Nop{}),
		groups: NewGroupService(rm, logging.Nop{}),
	}
}

func (f *fixture) register(t *testing.T, name, password string, groupNames ...string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), name, password)
	require.NoError(t, err)
	for _, g := range groupNames {
		require.NoError(t, f.groups.AddUsers(context.Background(), g, []string{name}))
	}
	return u
}

// brokenManager fails every store call.
type brokenManager struct {
	*repomanager.InMemoryRepositoryManager
	err error
}

type brokenUsers struct {
	users.Repository
	err error
}

type brokenGroups struct {
	groups.Repository
	err error
}

func (b brokenUsers) GetUserByName(context.Context, string) (*models.User, error) {
	return nil, b.err
}

func (b brokenUsers) Create(context.Context, *models.User) (*models.User, error) {
	return nil, b.err
}

func (b brokenGroups) List(context.Context, int, int) ([]*models.Group, error) {
	return nil, b.err
}

func (b brokenGroups) MembershipsFor(context.Context, string) ([]string, error) {
	return nil, b.err
}

func (m brokenManager) Users() users.Repository   { return brokenUsers{err: m.err} }
func (m brokenManager) Groups() groups.Repository { return brokenGroups{err: m.err} }

var errStore = errors.New("store unavailable")

func newBroken(t *testing.T) (brokenManager, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("test-secret"), "HS256", time.Minute)
	require.NoError(t, err)
	return brokenManager{InMemoryRepositoryManager: repomanager.NewInMemoryRepositoryManager(), err: errStore}, tokens
}

func isNot(t *testing.T, err error, targets ...error) {
	t.Helper()
	for _, target := range targets {
		require.False(t, errors.Is(err, target), "unexpected %v in %v", target, err)
	}
}

var domainErrors = []error{
	common.ErrInvalidCredentials,
	common.ErrSubjectNotFound,
	common.ErrPermissionDenied,
	common.ErrorNotFound,
}
