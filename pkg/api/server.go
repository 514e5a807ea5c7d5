package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/auth"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// Options tune request handling
type Options struct {
	// SeriesMaxOccurrences caps how many events one series request creates
	SeriesMaxOccurrences int
}

// Server is the JSON HTTP surface over the registration engine
type Server struct {
	database db.Database
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
	metrics  *Metrics
	opts     Options
}

func NewServer(database db.Database, tokens *auth.TokenIssuer, logger *zap.Logger, opts Options) *Server {
	return &Server{
		database: database,
		tokens:   tokens,
		logger:   logger,
		metrics:  NewMetrics(),
		opts:     opts,
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger), s.metrics.instrument())

	router.GET("/metrics", s.metrics.handler())

	// Public routes
	router.POST("/accounts", s.createAccount)
	router.POST("/login", s.login)
	router.GET("/events", s.listEvents)
	router.GET("/events/:id", optionalActor(s.tokens), s.eventDetail)
	router.GET("/skills", s.listSkills)
	router.GET("/cities", s.listCities)
	router.GET("/volunteers/:id", s.volunteerProfile)

	// Protected routes
	protected := router.Group("/")
	protected.Use(requireActor(s.tokens))
	{
		protected.POST("/events", s.createEvent)
		protected.POST("/events/series", s.createEventSeries)
		protected.PUT("/events/:id", s.editEvent)
		protected.DELETE("/events/:id", s.deleteEvent)
		protected.POST("/events/:id/register", s.register)
		protected.POST("/events/:id/cancel", s.cancel)
		protected.GET("/events/:id/registrations", s.eventRegistrations)
		protected.POST("/registrations/:id/decision", s.decide)
		protected.GET("/my-events", s.myEvents)
		protected.GET("/profile", s.getProfile)
		protected.PUT("/profile", s.updateProfile)
		protected.GET("/volunteers", s.searchVolunteers)

		protected.GET("/notifications", s.listNotifications)
		protected.POST("/notifications/:id/read", s.markRead)
		protected.POST("/notifications/read-all", s.markAllRead)
		protected.GET("/api/notifications/count", s.unreadCount)
		protected.GET("/api/notifications/latest", s.latestUnread)
	}

	return router
}
