package repomanager

import (
	"context"

	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/groups"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/memory"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory. The seeded
// groups match the initial SQL migration.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

type memRepositories struct {
	users  *memory.UserRepository
	groups *memory.GroupRepository
}

func (r memRepositories) Users() users.Repository   { return r.users }
func (r memRepositories) Groups() groups.Repository { return r.groups }

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		store: memory.NewStore(models.GroupAdmin, models.GroupManager, models.GroupWorker),
	}
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.store.Users()
}

func (m *InMemoryRepositoryManager) Groups() groups.Repository {
	return m.store.Groups()
}

func (m *InMemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return m.store.InTx(ctx, func(ctx context.Context, u *memory.UserRepository, g *memory.GroupRepository) error {
		return fn(ctx, memRepositories{users: u, groups: g})
	})
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Close() error { return nil }
