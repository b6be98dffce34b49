// Package groups provides the PostgreSQL-backed group and membership repository.
package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/dbx"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.Group, error) {
	query :=
		`SELECT id, name FROM groups
		 ORDER BY name
		 OFFSET $1 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Group, error) {
	query :=
		`SELECT id, name FROM groups
		 WHERE name = $1
		 `

	g := &models.Group{}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&g.ID, &g.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) Create(ctx context.Context, name string) (*models.Group, error) {
	query :=
		`INSERT INTO groups (name)
		 VALUES ($1)
		 RETURNING id
		 `

	g := &models.Group{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&g.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("group %w", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

// AddUsers runs one insert per user; call it inside a transaction to make
// the batch atomic.
func (r *PostgresRepository) AddUsers(ctx context.Context, groupID string, userIDs []string) error {
	query :=
		`INSERT INTO user_groups (user_id, group_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	for _, userID := range userIDs {
		if _, err := r.db.ExecContext(ctx, query, userID, groupID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) RemoveUsers(ctx context.Context, groupID string, userIDs []string) error {
	query :=
		`DELETE FROM user_groups
		 WHERE group_id = $1 AND user_id = $2
		 `

	for _, userID := range userIDs {
		if _, err := r.db.ExecContext(ctx, query, groupID, userID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// MembershipsFor walks users -> user_groups -> groups with outer joins, so a
// user without groups comes back as a single NULL row that is skipped.
func (r *PostgresRepository) MembershipsFor(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT g.name
		 FROM users u
		 LEFT JOIN user_groups ug ON ug.user_id = u.id
		 LEFT JOIN groups g ON g.id = ug.group_id
		 WHERE u.id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if name.Valid {
			names = append(names, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return names, nil
}
