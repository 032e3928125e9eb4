package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
)

// statusFor maps a service error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidFormat),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInsufficientPoints),
		errors.Is(err, services.ErrSelfReferral):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAccountNotFound), errors.Is(err, services.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConstraintViolation):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotOperator):
		return http.StatusForbidden
	case errors.Is(err, repositories.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure outcome of err
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	_, message := services.Outcome(err)
	c.JSON(statusFor(err), gin.H{"success": false, "error": message})
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}
