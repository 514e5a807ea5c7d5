package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the domain error taxonomy to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrRole), errors.Is(err, model.ErrOwnership):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrCapacity),
		errors.Is(err, model.ErrDuplicate),
		errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// messageFor is the user-visible text for a failed operation
func messageFor(err error) string {
	switch {
	case errors.Is(err, model.ErrRole):
		return "Your role does not allow this action."
	case errors.Is(err, model.ErrOwnership):
		return "You can only manage your own resources."
	case errors.Is(err, model.ErrNotFound):
		return "Not found."
	case errors.Is(err, model.ErrCapacity):
		return "Sorry, all spots are taken."
	case errors.Is(err, model.ErrDuplicate):
		return "Already exists."
	case errors.Is(err, model.ErrInvalidTransition):
		return "This registration cannot change to the requested status."
	case errors.Is(err, model.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, model.ErrInvalidInput):
		return err.Error()
	}
	return "Internal server error"
}

// abortWithError writes the error response and logs unexpected failures
func abortWithError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: messageFor(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}
