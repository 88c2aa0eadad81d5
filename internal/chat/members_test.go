package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMembershipRegistryAddTwice(t *testing.T) {
	var r MembershipRegistry
	require.Equal(t, Added, r.Add("ana"))
	require.Equal(t, AlreadyMember, r.Add("ana"))
	require.Equal(t, 1, r.Len())
}

func TestMembershipRegistryRemove(t *testing.T) {
	var r MembershipRegistry
	r.Add("ana")
	require.Equal(t, Removed, r.Remove("ana"))
	require.Equal(t, NotAMember, r.Remove("ana"))
	require.False(t, r.Contains("ana"))
}

func TestMembershipRegistryAliasesInsertionOrder(t *testing.T) {
	var r MembershipRegistry
	r.Add("ana")
	r.Add("bob")
	r.Add("carol")
	require.Equal(t, []string{"ana", "bob", "carol"}, r.Aliases())
}

func TestMembershipRegistryAliasesReturnsCopy(t *testing.T) {
	var r MembershipRegistry
	r.Add("ana")
	aliases := r.Aliases()
	aliases[0] = "mallory"
	require.True(t, r.Contains("ana"))
	require.False(t, r.Contains("mallory"))
}

func TestMembershipRegistryAuthorizedPublicRoom(t *testing.T) {
	var r MembershipRegistry
	require.True(t, r.Authorized("anyone", RoomTypePublic, "kevin"))
}

func TestMembershipRegistryAuthorizedPrivateRoom(t *testing.T) {
	var r MembershipRegistry
	r.Add("ana")

	require.True(t, r.Authorized("kevin", RoomTypePrivate, "kevin"), "owner is an implicit member")
	require.True(t, r.Authorized("ana", RoomTypePrivate, "kevin"))
	require.False(t, r.Authorized("bob", RoomTypePrivate, "kevin"))
}
