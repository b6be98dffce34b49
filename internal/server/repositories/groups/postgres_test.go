package groups

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const membershipsQ = `(?s)^SELECT\s+g\.name\s+FROM\s+users\s+u\s+LEFT\s+JOIN\s+user_groups\s+ug\s+ON\s+ug\.user_id\s*=\s*u\.id\s+LEFT\s+JOIN\s+groups\s+g\s+ON\s+g\.id\s*=\s*ug\.group_id\s+WHERE\s+u\.id\s*=\s*\$1\s*$`

func TestMembershipsFor_ReturnsNames(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(membershipsQ).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("admin").AddRow("worker"))

	got, err := repo.MembershipsFor(context.Background(), "u-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin", "worker"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipsFor_OuterJoinNullRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(membershipsQ).
		WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow(nil))

	got, err := repo.MembershipsFor(context.Background(), "u-2")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMembershipsFor_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(membershipsQ).WithArgs("u-1").WillReturnError(errors.New("db down"))

	_, err := repo.MembershipsFor(context.Background(), "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name\s+FROM\s+groups\s+ORDER\s+BY\s+name\s+OFFSET\s+\$1\s+LIMIT\s+\$2\s*$`).
		WithArgs(0, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("g-1", "admin").AddRow("g-2", "manager"))

	got, err := repo.List(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "admin", got[0].Name)
}

func TestGetByName(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^SELECT\s+id,\s*name\s+FROM\s+groups\s+WHERE\s+name\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("g-1", "admin"))
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	g, err := repo.GetByName(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "g-1", g.ID)

	_, err = repo.GetByName(context.Background(), "ghost")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^INSERT\s+INTO\s+groups\s*\(name\)\s*VALUES\s*\(\$1\)\s*RETURNING\s+id\s*$`

	mock.ExpectQuery(q).WithArgs("auditor").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("g-9"))
	mock.ExpectQuery(q).WithArgs("admin").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	g, err := repo.Create(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Equal(t, "g-9", g.ID)

	_, err = repo.Create(context.Background(), "admin")
	assert.True(t, errors.Is(err, common.ErrorAlreadyExists))
}

func TestAddUsers_IgnoresConflicts(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^INSERT\s+INTO\s+user_groups\s*\(user_id,\s*group_id\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s+DO\s+NOTHING\s*$`

	mock.ExpectExec(q).WithArgs("u-1", "g-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-2", "g-1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddUsers(context.Background(), "g-1", []string{"u-1", "u-2"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUsers_StopsOnError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+user_groups`).WithArgs("u-1", "g-1").WillReturnError(errors.New("fk violation"))

	err := repo.AddUsers(context.Background(), "g-1", []string{"u-1", "u-2"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveUsers(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^DELETE\s+FROM\s+user_groups\s+WHERE\s+group_id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s*$`

	mock.ExpectExec(q).WithArgs("g-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RemoveUsers(context.Background(), "g-1", []string{"u-1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}
