package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom-service/internal/telemetry"
	"chatroom-service/internal/users"
)

// UserHandler manages the user registry endpoints.
type UserHandler struct {
	users *users.UserList
	audit *telemetry.AuditEmitter
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(userList *users.UserList, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: userList, audit: audit}
}

// Register handles POST /users.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Alias string `json:"alias" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.users.Register(c.Request.Context(), req.Alias)
	if errors.Is(err, users.ErrUserExists) {
		h.emitAudit(c, "WARN", "duplicate user registration", req.Alias)
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		return
	}
	if err != nil {
		h.emitAudit(c, "ERROR", "user registration failed", req.Alias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
		return
	}

	h.emitAudit(c, "INFO", "user registered", req.Alias)
	c.JSON(http.StatusCreated, gin.H{"alias": req.Alias})
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"list_of_users": h.users.Aliases()})
}

// Get handles GET /users/:alias.
func (h *UserHandler) Get(c *gin.Context) {
	alias := c.Param("alias")
	user := h.users.Get(alias)
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alias":     user.Alias(),
		"email":     user.Email(),
		"blacklist": user.Blacklist(),
		"removed":   user.Removed(),
	})
}

// Deregister handles DELETE /users/:alias. The record is soft-removed.
func (h *UserHandler) Deregister(c *gin.Context) {
	alias := c.Param("alias")
	_, err := h.users.Deregister(c.Request.Context(), alias)
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		h.emitAudit(c, "ERROR", "user deregistration failed", alias)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deregister user"})
		return
	}

	h.emitAudit(c, "INFO", "user deregistered", alias)
	c.Status(http.StatusNoContent)
}

// BlacklistAdd handles POST /users/:alias/blacklist.
func (h *UserHandler) BlacklistAdd(c *gin.Context) {
	alias := c.Param("alias")

	var req struct {
		Target string `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := h.users.BlacklistAdd(alias, req.Target)
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update blacklist"})
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"message": "alias already blacklisted"})
		return
	}

	h.emitAudit(c, "INFO", "alias blacklisted", alias)
	c.JSON(http.StatusCreated, gin.H{"target": req.Target})
}

// BlacklistRemove handles DELETE /users/:alias/blacklist/:target.
func (h *UserHandler) BlacklistRemove(c *gin.Context) {
	alias := c.Param("alias")
	target := c.Param("target")

	removed, err := h.users.BlacklistRemove(alias, target)
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update blacklist"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "alias not blacklisted"})
		return
	}

	h.emitAudit(c, "INFO", "alias removed from blacklist", alias)
	c.JSON(http.StatusOK, gin.H{"target": target})
}

func (h *UserHandler) emitAudit(c *gin.Context, level, text, alias string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), alias)
}
