package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatroom-service/internal/chat"
)

func newMessageEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.registerUser(t, "kevin")
	env.registerUser(t, "ana")
	env.createRoom(t, "kevin_test_room", "kevin", chat.RoomTypePrivate)
	return env
}

func sendMessage(t *testing.T, env *testEnv, room, text, from, to string) {
	t.Helper()
	w := env.do(t, http.MethodPost, "/messages", gin.H{
		"room_name":  room,
		"message":    text,
		"from_alias": from,
		"to_alias":   to,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSendMessage(t *testing.T) {
	env := newMessageEnv(t)

	w := env.do(t, http.MethodPost, "/messages", gin.H{
		"room_name":  "kevin_test_room",
		"message":    "hello",
		"from_alias": "kevin",
		"to_alias":   "kevin",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "message sent to kevin", decodeBody(t, w)["message"])

	env.publisher.AssertCalled(t, "Publish", mock.Anything, "chat.message.sent", mock.Anything)
}

func TestSendMessageUnknownAlias(t *testing.T) {
	env := newMessageEnv(t)

	w := env.do(t, http.MethodPost, "/messages", gin.H{
		"room_name":  "kevin_test_room",
		"message":    "hello",
		"from_alias": "ghost",
		"to_alias":   "kevin",
	})
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestSendMessageUnknownRoom(t *testing.T) {
	env := newMessageEnv(t)

	w := env.do(t, http.MethodPost, "/messages", gin.H{
		"room_name":  "no_such_room",
		"message":    "hello",
		"from_alias": "kevin",
		"to_alias":   "kevin",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessageNonMemberForbidden(t *testing.T) {
	env := newMessageEnv(t)

	// ana is registered but not a member of the private room.
	w := env.do(t, http.MethodPost, "/messages", gin.H{
		"room_name":  "kevin_test_room",
		"message":    "let me in",
		"from_alias": "ana",
		"to_alias":   "kevin",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMessages(t *testing.T) {
	env := newMessageEnv(t)
	sendMessage(t, env, "kevin_test_room", "hello", "kevin", "kevin")

	w := env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room&include_objects=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, []any{"hello"}, body["message_texts"])
	require.Equal(t, float64(1), body["num_messages"])

	objects, ok := body["message_objects"].([]any)
	require.True(t, ok)
	require.Len(t, objects, 1)
	first, ok := objects[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "kevin", first["sender"])
	require.Equal(t, "kevin_test_room", first["room_name"])
}

func TestGetMessagesDefaultOmitsObjects(t *testing.T) {
	env := newMessageEnv(t)
	sendMessage(t, env, "kevin_test_room", "hello", "kevin", "kevin")

	w := env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, []any{"hello"}, body["message_texts"])
	require.Empty(t, body["message_objects"])
	require.Equal(t, float64(1), body["num_messages"])
}

func TestGetMessagesCount(t *testing.T) {
	env := newMessageEnv(t)
	for _, text := range []string{"one", "two", "three"} {
		sendMessage(t, env, "kevin_test_room", text, "kevin", "kevin")
	}

	w := env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room&count=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []any{"two", "three"}, decodeBody(t, w)["message_texts"])
}

func TestGetMessagesMissingParams(t *testing.T) {
	env := newMessageEnv(t)

	w := env.do(t, http.MethodGet, "/messages?alias=kevin", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room&count=abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessagesNonMemberForbidden(t *testing.T) {
	env := newMessageEnv(t)
	sendMessage(t, env, "kevin_test_room", "secret", "kevin", "kevin")

	w := env.do(t, http.MethodGet, "/messages?alias=ana&room_name=kevin_test_room", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/messages?alias=ghost&room_name=kevin_test_room", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestEditMessage(t *testing.T) {
	env := newMessageEnv(t)
	sendMessage(t, env, "kevin_test_room", "helo", "kevin", "kevin")

	w := env.do(t, http.MethodPatch, "/messages/kevin_test_room", gin.H{
		"alias":    "kevin",
		"old_text": "helo",
		"new_text": "hello",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room", nil)
	require.Equal(t, []any{"hello"}, decodeBody(t, w)["message_texts"])
}

func TestEditMessageNoMatch(t *testing.T) {
	env := newMessageEnv(t)
	sendMessage(t, env, "kevin_test_room", "hello", "kevin", "kevin")

	w := env.do(t, http.MethodPatch, "/messages/kevin_test_room", gin.H{
		"alias":    "kevin",
		"old_text": "nope",
		"new_text": "changed",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveAndRestoreMessages(t *testing.T) {
	env := newMessageEnv(t)
	sendMessage(t, env, "kevin_test_room", "hello", "kevin", "kevin")

	w := env.do(t, http.MethodDelete, "/messages/kevin_test_room?alias=kevin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room", nil)
	body := decodeBody(t, w)
	require.Empty(t, body["message_texts"])
	require.Equal(t, float64(0), body["num_messages"])

	w = env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room&include_removed=true", nil)
	require.Equal(t, []any{"hello"}, decodeBody(t, w)["message_texts"])

	w = env.do(t, http.MethodPost, "/messages/kevin_test_room/restore", gin.H{"alias": "kevin"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/messages?alias=kevin&room_name=kevin_test_room", nil)
	body = decodeBody(t, w)
	require.Equal(t, []any{"hello"}, body["message_texts"])
	require.Equal(t, float64(1), body["num_messages"])
}

func TestRemoveMessagesNoneForAlias(t *testing.T) {
	env := newMessageEnv(t)
	sendMessage(t, env, "kevin_test_room", "hello", "kevin", "kevin")

	// ana needs membership to get past authorization, but owns no messages.
	env.do(t, http.MethodPost, "/rooms/kevin_test_room/members", gin.H{"alias": "ana"})

	w := env.do(t, http.MethodDelete, "/messages/kevin_test_room?alias=ana", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveMessagesMissingAlias(t *testing.T) {
	env := newMessageEnv(t)

	w := env.do(t, http.MethodDelete, "/messages/kevin_test_room", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicRoomOpenToAllUsers(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "kevin")
	env.registerUser(t, "ana")
	env.createRoom(t, "general", "kevin", chat.RoomTypePublic)

	sendMessage(t, env, "general", "hi all", "ana", "kevin")

	w := env.do(t, http.MethodGet, "/messages?alias=ana&room_name=general", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []any{"hi all"}, decodeBody(t, w)["message_texts"])
}
