package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
)

// AuthHandler handles operator authentication
type AuthHandler struct {
	authService services.Auth
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.Auth) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
