package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroups_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	all, err := f.groups.List(ctx, 0, DefaultListLimit)
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = f.groups.List(ctx, -1, 10)
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = f.groups.List(ctx, 0, MaxListLimit+1)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestGroups_AddAndRemoveUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw")
	f.register(t, "bob", "pw")

	require.NoError(t, f.groups.AddUsers(ctx, models.GroupManager, []string{"alice", "bob"}))
	require.NoError(t, f.groups.AddUsers(ctx, models.GroupManager, []string{"alice"}))

	members, err := f.groups.UsersInGroup(ctx, models.GroupManager)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Name)

	require.NoError(t, f.groups.RemoveUsers(ctx, models.GroupManager, []string{"bob"}))
	members, err = f.groups.UsersInGroup(ctx, models.GroupManager)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestGroups_AddUsersIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw")

	err := f.groups.AddUsers(ctx, models.GroupWorker, []string{"alice", "ghost"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "ghost")

	members, err := f.groups.UsersInGroup(ctx, models.GroupWorker)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestGroups_UnknownGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw")

	_, err := f.groups.UsersInGroup(ctx, "auditors")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = f.groups.AddUsers(ctx, "auditors", []string{"alice"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = f.groups.RemoveUsers(ctx, models.GroupAdmin, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestGroups_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.groups.Create(ctx, "auditor")
	require.NoError(t, err)
	assert.Equal(t, "auditor", g.Name)

	_, err = f.groups.Create(ctx, "auditor")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGroups_StoreError(t *testing.T) {
	rm, _ := newBroken(t)
	s := NewGroupService(rm, logging.Nop{})

	_, err := s.List(context.Background(), 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStore)
	isNot(t, err, domainErrors...)
}
