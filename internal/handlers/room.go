package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/telemetry"
	"chatroom-service/internal/users"
)

// RoomHandler manages room registry and membership endpoints.
type RoomHandler struct {
	rooms  *chat.RoomList
	users  *users.UserList
	audit  *telemetry.AuditEmitter
	events *telemetry.EventEmitter
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(rooms *chat.RoomList, userList *users.UserList, audit *telemetry.AuditEmitter, events *telemetry.EventEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, users: userList, audit: audit, events: events}
}

// Create handles POST /rooms. Room administration is gated on the owner
// being a registered user; the engine enforces name uniqueness atomically.
func (h *RoomHandler) Create(c *gin.Context) {
	var req struct {
		RoomName   string `json:"room_name" binding:"required"`
		OwnerAlias string `json:"owner_alias" binding:"required"`
		RoomType   int    `json:"room_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomType := chat.RoomType(req.RoomType)
	if req.RoomType == 0 {
		roomType = chat.RoomTypePrivate
	}
	if roomType != chat.RoomTypePublic && roomType != chat.RoomTypePrivate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room type"})
		return
	}

	if !h.users.Exists(req.OwnerAlias) {
		h.emitAudit(c, "WARN", "room creation by unknown alias", req.OwnerAlias)
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "owner alias not found in user list"})
		return
	}

	room, err := h.rooms.Register(c.Request.Context(), req.RoomName, req.OwnerAlias, roomType)
	if errors.Is(err, chat.ErrRoomExists) {
		h.emitAudit(c, "WARN", "duplicate room creation", req.OwnerAlias)
		c.JSON(http.StatusConflict, gin.H{"error": "room already exists"})
		return
	}
	if err != nil {
		h.emitAudit(c, "ERROR", "room creation failed", req.OwnerAlias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	h.emitAudit(c, "INFO", "room created", req.OwnerAlias)
	h.emitEvent(c, "chat.room.created", "room_created", gin.H{
		"room_name": room.Name(),
		"owner":     room.Owner(),
		"room_type": int(room.Type()),
	})
	c.JSON(http.StatusCreated, gin.H{"room_name": room.Name()})
}

// List handles GET /rooms: the directory view, names only.
func (h *RoomHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rooms.Names()})
}

// AddMember handles POST /rooms/:room_name/members.
func (h *RoomHandler) AddMember(c *gin.Context) {
	roomName := c.Param("room_name")

	var req struct {
		Alias string `json:"alias" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.users.Exists(req.Alias) {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "alias not found in user list"})
		return
	}

	room := h.rooms.Get(roomName)
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	result, err := room.AddMember(c.Request.Context(), req.Alias)
	if err != nil {
		h.emitAudit(c, "ERROR", "member addition failed", req.Alias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add member"})
		return
	}
	switch result {
	case chat.Added:
		h.emitAudit(c, "INFO", "member added", req.Alias)
		c.JSON(http.StatusCreated, gin.H{"status": result.String()})
	case chat.AlreadyMember:
		c.JSON(http.StatusOK, gin.H{"status": result.String()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": result.String()})
	}
}

// RemoveMember handles DELETE /rooms/:room_name/members/:alias.
func (h *RoomHandler) RemoveMember(c *gin.Context) {
	roomName := c.Param("room_name")
	alias := c.Param("alias")

	room := h.rooms.Get(roomName)
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	result, err := room.RemoveMember(c.Request.Context(), alias)
	if err != nil {
		h.emitAudit(c, "ERROR", "member removal failed", alias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove member"})
		return
	}
	switch result {
	case chat.Removed:
		h.emitAudit(c, "INFO", "member removed", alias)
		c.JSON(http.StatusOK, gin.H{"status": result.String()})
	case chat.NotAMember:
		c.JSON(http.StatusNotFound, gin.H{"status": result.String()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": result.String()})
	}
}

func (h *RoomHandler) emitAudit(c *gin.Context, level, text, alias string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), alias)
}

func (h *RoomHandler) emitEvent(c *gin.Context, routingKey, name string, payload any) {
	if h.events == nil {
		return
	}
	h.events.Emit(c.Request.Context(), routingKey, name, payload)
}
