package admin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/backoffice/internal/server/auth"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useSharedStore points every command at one in-memory store.
func useSharedStore(t *testing.T) *repomanager.InMemoryRepositoryManager {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()
	old := openManager
	openManager = func(string) (repomanager.RepositoryManager, error) { return rm, nil }
	t.Cleanup(func() { openManager = old })
	return rm
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUserCreate_FromStdinWithGroup(t *testing.T) {
	rm := useSharedStore(t)

	out, err := run(t, "s3cret\n", "user", "create", "root", "--password-stdin", "-g", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "user root created")

	u, err := rm.Users().GetUserByName(context.Background(), "root")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword("s3cret", u.PasswordHash))

	names, err := rm.Groups().MembershipsFor(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, names)
}

func TestUserCreate_UnknownGroupCanBeRetried(t *testing.T) {
	rm := useSharedStore(t)

	_, err := run(t, "s3cret\n", "user", "create", "bob", "--password-stdin", "-g", "nosuchgroup")
	require.ErrorContains(t, err, "not found")

	_, err = rm.Users().GetUserByName(context.Background(), "bob")
	require.Error(t, err)

	out, err := run(t, "s3cret\n", "user", "create", "bob", "--password-stdin", "-g", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "user bob created")
}

func TestUserCreate_TerminalPrompt(t *testing.T) {
	useSharedStore(t)

	old := readPassword
	defer func() { readPassword = old }()

	answers := [][]byte{[]byte("pw"), []byte("pw")}
	readPassword = func(int) ([]byte, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}

	out, err := run(t, "", "user", "create", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Enter password:")
	assert.Contains(t, out, "user alice created")
}

func TestUserCreate_PasswordMismatch(t *testing.T) {
	useSharedStore(t)

	old := readPassword
	defer func() { readPassword = old }()

	answers := [][]byte{[]byte("one"), []byte("two")}
	readPassword = func(int) ([]byte, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}

	_, err := run(t, "", "user", "create", "alice")
	assert.EqualError(t, err, "passwords do not match")
}

func TestUserCreate_TerminalError(t *testing.T) {
	useSharedStore(t)

	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }

	_, err := run(t, "", "user", "create", "alice")
	assert.Error(t, err)
}

func TestUserCreate_Duplicate(t *testing.T) {
	useSharedStore(t)

	_, err := run(t, "pw\n", "user", "create", "alice", "--password-stdin")
	require.NoError(t, err)
	_, err = run(t, "pw\n", "user", "create", "alice", "--password-stdin")
	assert.ErrorContains(t, err, "already exists")
}

func TestGroupMembershipCommands(t *testing.T) {
	useSharedStore(t)

	_, err := run(t, "pw\n", "user", "create", "alice", "--password-stdin")
	require.NoError(t, err)
	_, err = run(t, "pw\n", "user", "create", "bob", "--password-stdin")
	require.NoError(t, err)

	out, err := run(t, "", "group", "add-user", "manager", "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "manager: alice bob\n", out)

	out, err = run(t, "", "group", "remove-user", "manager", "bob")
	require.NoError(t, err)
	assert.Equal(t, "manager: alice\n", out)

	_, err = run(t, "", "group", "add-user", "manager", "ghost")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "", "group", "add-user", "manager")
	assert.Error(t, err)
}

func TestGroupCreateAndList(t *testing.T) {
	useSharedStore(t)

	out, err := run(t, "", "group", "create", "auditor")
	require.NoError(t, err)
	assert.Contains(t, out, "group auditor created")

	out, err = run(t, "", "group", "list")
	require.NoError(t, err)
	assert.Equal(t, "admin\nauditor\nmanager\nworker\n", out)
}

func TestMigrate(t *testing.T) {
	useSharedStore(t)

	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, "migrations applied\n", out)
}

func TestOpenError(t *testing.T) {
	old := openManager
	defer func() { openManager = old }()
	openManager = func(string) (repomanager.RepositoryManager, error) { return nil, errors.New("no db") }

	_, err := run(t, "", "migrate")
	assert.EqualError(t, err, "no db")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build version:")
}
