package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes wires the index and health endpoints.
func RegisterHealthRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "chatroom-service", "status": "ok"})
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}
