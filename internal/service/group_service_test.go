package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")

	resp, err := env.groups.CreateGroup(context.Background(), as(alice, &api.CreateGroupRequest{Name: "Roommates"}))
	require.NoError(t, err)

	group := resp.Msg.Group
	require.NotNil(t, group)
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "Roommates", group.Name)
	assert.Equal(t, alice, group.CreatedBy)
	assert.Equal(t, []string{alice}, group.MemberIDs)
	assert.NotZero(t, group.CreatedAt)

	t.Run("empty name", func(t *testing.T) {
		_, err := env.groups.CreateGroup(context.Background(), as(alice, &api.CreateGroupRequest{}))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := env.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{Name: "X"}))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}

func TestGetGroup(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")
	eve := env.user(t, "eve@example.com", "Eve")
	groupID := env.group(t, "Work Lunch", alice, bob)
	ctx := context.Background()

	resp, err := env.groups.GetGroup(ctx, as(bob, &api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Equal(t, "Work Lunch", resp.Msg.Group.Name)
	assert.True(t, resp.Msg.IsMember)
	assert.Equal(t, 2, resp.Msg.MembersCount)

	resp, err = env.groups.GetGroup(ctx, as(eve, &api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.False(t, resp.Msg.IsMember)
	assert.Equal(t, 2, resp.Msg.MembersCount)

	_, err = env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: uuid.NewString()}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: "not-a-uuid"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestListGroups(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")

	shared := env.group(t, "Shared", alice, bob)
	env.group(t, "Bob only", bob)

	resp, err := env.groups.ListGroups(context.Background(), as(alice, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Groups, 1)
	assert.Equal(t, shared, resp.Msg.Groups[0].ID)

	resp, err = env.groups.ListGroups(context.Background(), as(bob, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.Groups, 2)
}

func TestAddMember(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")
	carol := env.user(t, "carol@example.com", "Carol")
	mallory := env.user(t, "mallory@example.com", "Mallory")
	groupID := env.group(t, "Flat", alice)
	ctx := context.Background()

	resp, err := env.groups.AddMember(ctx, as(alice, &api.AddMemberRequest{GroupID: groupID, UserID: bob}))
	require.NoError(t, err)
	assert.Equal(t, []string{alice, bob}, resp.Msg.Group.MemberIDs)

	// Any member may invite, not just the creator
	_, err = env.groups.AddMember(ctx, as(bob, &api.AddMemberRequest{GroupID: groupID, UserID: carol}))
	require.NoError(t, err)

	tests := []struct {
		name     string
		caller   string
		req      *api.AddMemberRequest
		wantCode connect.Code
	}{
		{"already a member", alice, &api.AddMemberRequest{GroupID: groupID, UserID: bob}, connect.CodeAlreadyExists},
		{"caller not a member", mallory, &api.AddMemberRequest{GroupID: groupID, UserID: mallory}, connect.CodePermissionDenied},
		{"unknown user", alice, &api.AddMemberRequest{GroupID: groupID, UserID: uuid.NewString()}, connect.CodeNotFound},
		{"unknown group", alice, &api.AddMemberRequest{GroupID: uuid.NewString(), UserID: bob}, connect.CodeNotFound},
		{"malformed user id", alice, &api.AddMemberRequest{GroupID: groupID, UserID: "bob"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.groups.AddMember(ctx, as(tt.caller, tt.req))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, connect.CodeOf(err), "error: %v", err)
		})
	}

	got, err := env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Msg.MembersCount)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	env.user(t, "bob@example.com", "")

	resp, err := env.users.ListUsers(context.Background(), as(alice, &api.ListUsersRequest{}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Users, 2)

	emails := []string{resp.Msg.Users[0].Email, resp.Msg.Users[1].Email}
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, emails)

	_, err = env.users.ListUsers(context.Background(), connect.NewRequest(&api.ListUsersRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}
