package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatroom-service/internal/observability"
)

// RequestIDKey is the gin context key the handlers read the request id from.
const RequestIDKey = "request_id"

// RequestID assigns every request an id (taken from X-Request-ID or newly
// generated), echoes it on the response, and logs the request with it.
func RequestID(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := observability.RequestIDFromRequest(c.Request)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-Id", requestID)

		log.Debug().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", observability.IPFromRequest(c.Request)).
			Msg("request")

		c.Next()
	}
}
