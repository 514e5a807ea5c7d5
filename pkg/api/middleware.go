package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor_id"

// TokenVerifier resolves a bearer token into a profile id
type TokenVerifier interface {
	Verify(token string) (string, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	return strings.TrimSpace(token), found && token != ""
}

// requireActor rejects requests without a valid bearer token
func requireActor(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := bearerToken(c)
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
			return
		}
		actorID, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
			return
		}
		c.Set(actorKey, actorID)
		c.Next()
	}
}

// optionalActor sets the actor when a valid token is present and lets anonymous requests through
func optionalActor(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, found := bearerToken(c); found {
			if actorID, err := verifier.Verify(token); err == nil {
				c.Set(actorKey, actorID)
			}
		}
		c.Next()
	}
}

// actorID returns the authenticated profile id, empty for anonymous requests
func actorID(c *gin.Context) string {
	return c.GetString(actorKey)
}

// requestLogger logs every request with typed fields
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := actorID(c); id != "" {
			fields = append(fields, zap.String("actor_id", id))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("Request served", fields...)
		} else {
			logger.Debug("Request served", fields...)
		}
	}
}
