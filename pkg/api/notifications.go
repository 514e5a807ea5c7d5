package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

func (s *Server) listNotifications(c *gin.Context) {
	list, err := services.ListNotifications(c.Request.Context(), s.database, actorID(c), services.ReadFilter(c.DefaultQuery("filter", "all")))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, notificationListResponse{
		Notifications: toNotifications(list.Notifications),
		UnreadCount:   list.UnreadCount,
		Filter:        list.Filter,
	})
}

func (s *Server) markRead(c *gin.Context) {
	if _, err := services.MarkRead(c.Request.Context(), s.database, s.logger, c.Param("id"), actorID(c)); err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) markAllRead(c *gin.Context) {
	if _, err := services.MarkAllRead(c.Request.Context(), s.database, s.logger, actorID(c)); err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) unreadCount(c *gin.Context) {
	count, err := services.UnreadCount(c.Request.Context(), s.database, actorID(c))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, countResponse{Count: count})
}

func (s *Server) latestUnread(c *gin.Context) {
	limit := services.DefaultLatestLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	latest, err := services.LatestUnread(ctx, s.database, actorID(c), limit)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	count, err := services.UnreadCount(ctx, s.database, actorID(c))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, latestResponse{Notifications: toNotifications(latest), Count: count})
}
