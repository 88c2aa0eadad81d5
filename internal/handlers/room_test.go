package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatroom-service/internal/chat"
)

func TestCreateRoom(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")

	w := env.do(t, http.MethodPost, "/rooms", gin.H{
		"room_name":   "kevin_test_room",
		"owner_alias": "kevin",
		"room_type":   int(chat.RoomTypePrivate),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "kevin_test_room", decodeBody(t, w)["room_name"])

	env.publisher.AssertCalled(t, "Publish", mock.Anything, "chat.room.created", mock.Anything)
}

func TestCreateRoomDefaultsToPrivate(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")

	w := env.do(t, http.MethodPost, "/rooms", gin.H{
		"room_name":   "kevin_test_room",
		"owner_alias": "kevin",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, chat.RoomTypePrivate, env.rooms.Get("kevin_test_room").Type())
}

func TestCreateRoomInvalidType(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")

	w := env.do(t, http.MethodPost, "/rooms", gin.H{
		"room_name":   "kevin_test_room",
		"owner_alias": "kevin",
		"room_type":   42,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRoomUnknownOwner(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/rooms", gin.H{
		"room_name":   "kevin_test_room",
		"owner_alias": "ghost",
	})
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestCreateRoomDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")
	env.createRoom(t, "kevin_test_room", "kevin", chat.RoomTypePrivate)

	w := env.do(t, http.MethodPost, "/rooms", gin.H{
		"room_name":   "kevin_test_room",
		"owner_alias": "kevin",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestListRooms(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")
	env.createRoom(t, "general", "kevin", chat.RoomTypePublic)
	env.createRoom(t, "kevin_test_room", "kevin", chat.RoomTypePrivate)

	w := env.do(t, http.MethodGet, "/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []any{"general", "kevin_test_room"}, decodeBody(t, w)["rooms"])
}

func TestAddMember(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")
	env.registerUser(t, "ana")
	env.createRoom(t, "kevin_test_room", "kevin", chat.RoomTypePrivate)

	w := env.do(t, http.MethodPost, "/rooms/kevin_test_room/members", gin.H{"alias": "ana"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "added", decodeBody(t, w)["status"])

	w = env.do(t, http.MethodPost, "/rooms/kevin_test_room/members", gin.H{"alias": "ana"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "already_member", decodeBody(t, w)["status"])
}

func TestAddMemberUnknownAlias(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")
	env.createRoom(t, "kevin_test_room", "kevin", chat.RoomTypePrivate)

	w := env.do(t, http.MethodPost, "/rooms/kevin_test_room/members", gin.H{"alias": "ghost"})
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestAddMemberUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "ana")

	w := env.do(t, http.MethodPost, "/rooms/no_such_room/members", gin.H{"alias": "ana"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")
	env.registerUser(t, "ana")
	env.createRoom(t, "kevin_test_room", "kevin", chat.RoomTypePrivate)
	env.do(t, http.MethodPost, "/rooms/kevin_test_room/members", gin.H{"alias": "ana"})

	w := env.do(t, http.MethodDelete, "/rooms/kevin_test_room/members/ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "removed", decodeBody(t, w)["status"])

	w = env.do(t, http.MethodDelete, "/rooms/kevin_test_room/members/ana", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_a_member", decodeBody(t, w)["status"])
}

func TestRemoveMemberUnknownRoom(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodDelete, "/rooms/no_such_room/members/ana", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
