package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/backoffice/internal/server/config"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/groups"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/users"
)

// Repositories is the set of stores a unit of work can touch.
type Repositories interface {
	Users() users.Repository
	Groups() groups.Repository
}

// RepositoryManager owns the storage backend. Outside InTx each call runs on
// its own; inside InTx all calls share one transaction.
type RepositoryManager interface {
	Repositories
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// New picks the backend from the DSN: config.MemoryDSN selects the in-memory
// store, anything else is handed to the pgx driver.
func New(dsn string) (RepositoryManager, error) {
	switch dsn {
	case "":
		return nil, fmt.Errorf("database dsn is empty")
	case config.MemoryDSN:
		return NewInMemoryRepositoryManager(), nil
	default:
		return OpenPostgres(dsn)
	}
}
