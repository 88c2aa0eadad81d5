package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/mocks"
	"chatroom-service/internal/store/badgerstore"
	"chatroom-service/internal/telemetry"
	"chatroom-service/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv wires the handlers over an in-memory store and a mocked event
// publisher, the same topology main assembles for production.
type testEnv struct {
	router    *gin.Engine
	users     *users.UserList
	rooms     *chat.RoomList
	publisher *mocks.PublisherMock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	s, err := badgerstore.Open("", log)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	userList, err := users.NewUserList(ctx, s.Collection("users"), log, "global")
	require.NoError(t, err)
	roomList, err := chat.NewRoomList(ctx, s.Collection("rooms"), log, "main")
	require.NoError(t, err)

	publisher := &mocks.PublisherMock{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	audit := telemetry.NewAuditEmitter(publisher, "audit.chatroom", "chatroom-service", "test", log)
	events := telemetry.NewEventEmitter(publisher, "chatroom-service", log)

	userHandler := NewUserHandler(userList, audit)
	roomHandler := NewRoomHandler(roomList, userList, audit, events)
	messageHandler := NewMessageHandler(roomList, userList, audit, events)

	router := gin.New()
	RegisterHealthRoutes(router)

	router.POST("/users", userHandler.Register)
	router.GET("/users", userHandler.List)
	router.GET("/users/:alias", userHandler.Get)
	router.DELETE("/users/:alias", userHandler.Deregister)
	router.POST("/users/:alias/blacklist", userHandler.BlacklistAdd)
	router.DELETE("/users/:alias/blacklist/:target", userHandler.BlacklistRemove)

	router.POST("/rooms", roomHandler.Create)
	router.GET("/rooms", roomHandler.List)
	router.POST("/rooms/:room_name/members", roomHandler.AddMember)
	router.DELETE("/rooms/:room_name/members/:alias", roomHandler.RemoveMember)

	router.POST("/messages", messageHandler.Send)
	router.GET("/messages", messageHandler.Get)
	router.PATCH("/messages/:room_name", messageHandler.Edit)
	router.DELETE("/messages/:room_name", messageHandler.Remove)
	router.POST("/messages/:room_name/restore", messageHandler.Restore)

	return &testEnv{router: router, users: userList, rooms: roomList, publisher: publisher}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerUser(t *testing.T, alias string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/users", gin.H{"alias": alias})
	require.Equal(t, http.StatusCreated, w.Code)
}

func (e *testEnv) createRoom(t *testing.T, name, owner string, roomType chat.RoomType) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/rooms", gin.H{
		"room_name":   name,
		"owner_alias": owner,
		"room_type":   int(roomType),
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
