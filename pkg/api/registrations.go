package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	// the message is optional, so an empty body is fine
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}

	result, err := services.CreateRegistration(c.Request.Context(), s.database, s.logger, c.Param("id"), actorID(c), req.Message)
	if err != nil {
		s.metrics.registrations.WithLabelValues(outcomeLabel(err)).Inc()
		abortWithError(c, s.logger, err)
		return
	}
	s.metrics.registrations.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, toRegistration(result.Registration))
}

// outcomeLabel names a failed registration attempt for metrics
func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrCapacity):
		return "full"
	case errors.Is(err, model.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, model.ErrRole):
		return "role"
	}
	return "error"
}

func (s *Server) cancel(c *gin.Context) {
	reg, err := services.CancelEventRegistration(c.Request.Context(), s.database, s.logger, c.Param("id"), actorID(c))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, toRegistration(reg))
}

func (s *Server) eventRegistrations(c *gin.Context) {
	regs, err := services.ListEventRegistrations(c.Request.Context(), s.database, c.Param("id"), actorID(c))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, toEventRegistrations(regs))
}

func (s *Server) decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := services.Decide(c.Request.Context(), s.database, s.logger, c.Param("id"), actorID(c), req.Decision)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	if result.Notification != nil {
		s.metrics.decisions.WithLabelValues(string(result.Registration.Status)).Inc()
	}
	c.JSON(http.StatusOK, toRegistration(result.Registration))
}
