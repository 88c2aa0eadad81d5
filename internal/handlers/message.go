package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/telemetry"
	"chatroom-service/internal/users"
)

// MessageHandler manages the message endpoints of a room.
type MessageHandler struct {
	rooms  *chat.RoomList
	users  *users.UserList
	audit  *telemetry.AuditEmitter
	events *telemetry.EventEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(rooms *chat.RoomList, userList *users.UserList, audit *telemetry.AuditEmitter, events *telemetry.EventEmitter) *MessageHandler {
	return &MessageHandler{rooms: rooms, users: userList, audit: audit, events: events}
}

// Send handles POST /messages.
func (h *MessageHandler) Send(c *gin.Context) {
	var req struct {
		RoomName  string `json:"room_name" binding:"required"`
		Message   string `json:"message" binding:"required"`
		FromAlias string `json:"from_alias" binding:"required"`
		ToAlias   string `json:"to_alias" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.users.Exists(req.FromAlias) || !h.users.Exists(req.ToAlias) {
		h.emitAudit(c, "WARN", "send with unknown alias", req.FromAlias)
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "aliases not found in user list"})
		return
	}

	room := h.rooms.Get(req.RoomName)
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	messageType := chat.MessageTypePrivate
	if room.Type() == chat.RoomTypePublic {
		messageType = chat.MessageTypePublic
	}

	sent, err := room.Send(c.Request.Context(), req.Message, req.FromAlias, chat.MessageProperties{
		RoomName: req.RoomName,
		ToUser:   req.ToAlias,
		FromUser: req.FromAlias,
		Type:     messageType,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "message persist failed", req.FromAlias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}
	if !sent {
		h.emitAudit(c, "WARN", "send rejected for non-member", req.FromAlias)
		c.JSON(http.StatusForbidden, gin.H{"error": "alias is not a member of the room"})
		return
	}

	h.emitAudit(c, "INFO", "message sent", req.FromAlias)
	h.emitEvent(c, "chat.message.sent", "message_sent", gin.H{
		"room_name": req.RoomName,
		"from":      req.FromAlias,
		"to":        req.ToAlias,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "message sent to " + req.ToAlias})
}

// Get handles GET /messages.
func (h *MessageHandler) Get(c *gin.Context) {
	alias := c.Query("alias")
	roomName := c.Query("room_name")
	if alias == "" || roomName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "alias and room_name are required"})
		return
	}

	count := chat.GetAllMessages
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
		count = parsed
	}
	includeRemoved := c.Query("include_removed") == "true"
	// Full objects are opt-in; the default response carries texts only.
	includeObjects := c.Query("include_objects") == "true"

	room, ok := h.authorizedRoom(c, roomName, alias)
	if !ok {
		return
	}

	texts, objects, num := room.Messages(alias, count, includeObjects, includeRemoved)
	c.JSON(http.StatusOK, gin.H{
		"message_texts":   texts,
		"message_objects": objects,
		"num_messages":    num,
	})
}

// Edit handles PATCH /messages/:room_name.
func (h *MessageHandler) Edit(c *gin.Context) {
	roomName := c.Param("room_name")

	var req struct {
		Alias   string `json:"alias" binding:"required"`
		OldText string `json:"old_text" binding:"required"`
		NewText string `json:"new_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, ok := h.authorizedRoom(c, roomName, req.Alias)
	if !ok {
		return
	}

	edited, err := room.EditMessage(c.Request.Context(), req.Alias, req.OldText, req.NewText)
	if err != nil {
		h.emitAudit(c, "ERROR", "message edit persist failed", req.Alias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not edit message"})
		return
	}
	if !edited {
		c.JSON(http.StatusNotFound, gin.H{"error": "no matching message"})
		return
	}

	h.emitAudit(c, "INFO", "message edited", req.Alias)
	c.JSON(http.StatusOK, gin.H{"message": "message edited"})
}

// Remove handles DELETE /messages/:room_name. Soft delete only; Restore
// brings the messages back.
func (h *MessageHandler) Remove(c *gin.Context) {
	roomName := c.Param("room_name")
	alias := c.Query("alias")
	if alias == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "alias is required"})
		return
	}

	room, ok := h.authorizedRoom(c, roomName, alias)
	if !ok {
		return
	}

	removed, err := room.RemoveMessages(c.Request.Context(), alias)
	if err != nil {
		h.emitAudit(c, "ERROR", "message removal persist failed", alias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove messages"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "no messages for alias"})
		return
	}

	h.emitAudit(c, "INFO", "messages removed", alias)
	c.JSON(http.StatusOK, gin.H{"message": "messages removed for " + alias})
}

// Restore handles POST /messages/:room_name/restore.
func (h *MessageHandler) Restore(c *gin.Context) {
	roomName := c.Param("room_name")

	var req struct {
		Alias string `json:"alias" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, ok := h.authorizedRoom(c, roomName, req.Alias)
	if !ok {
		return
	}

	restored, err := room.RestoreMessages(c.Request.Context(), req.Alias)
	if err != nil {
		h.emitAudit(c, "ERROR", "message restore persist failed", req.Alias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not restore messages"})
		return
	}
	if !restored {
		c.JSON(http.StatusNotFound, gin.H{"error": "no messages for alias"})
		return
	}

	h.emitAudit(c, "INFO", "messages restored", req.Alias)
	c.JSON(http.StatusOK, gin.H{"message": "messages restored for " + req.Alias})
}

// authorizedRoom resolves the room and applies the same access predicate the
// engine uses: the alias must be a known user, and for private rooms the
// owner or an explicit member. Responds and returns ok=false on failure.
func (h *MessageHandler) authorizedRoom(c *gin.Context, roomName, alias string) (*chat.Room, bool) {
	if !h.users.Exists(alias) {
		h.emitAudit(c, "WARN", "access with unknown alias", alias)
		c.JSON(http.StatusForbidden, gin.H{"error": "alias not found in user list"})
		return nil, false
	}

	room := h.rooms.Get(roomName)
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}

	if room.Type() == chat.RoomTypePrivate && alias != room.Owner() && !lo.Contains(room.Members(), alias) {
		h.emitAudit(c, "WARN", "access rejected for non-member", alias)
		c.JSON(http.StatusForbidden, gin.H{"error": "alias is not a member of the room"})
		return nil, false
	}
	return room, true
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text, alias string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), alias)
}

func (h *MessageHandler) emitEvent(c *gin.Context, routingKey, name string, payload any) {
	if h.events == nil {
		return
	}
	h.events.Emit(c.Request.Context(), routingKey, name, payload)
}
