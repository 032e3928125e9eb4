package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
)

// SupportHandler handles support ticket requests from the chat transport
type SupportHandler struct {
	support services.Support
}

// NewSupportHandler creates a new SupportHandler
func NewSupportHandler(support services.Support) *SupportHandler {
	return &SupportHandler{support: support}
}

// CreateTicket handles POST /support/tickets
func (h *SupportHandler) CreateTicket(c *gin.Context) {
	var req models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	ticket, err := h.support.CreateTicket(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// AnswerTicket handles POST /support/answers
func (h *SupportHandler) AnswerTicket(c *gin.Context) {
	var req models.AnswerTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	ticket, err := h.support.AnswerTicket(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// CloseTicket handles POST /support/tickets/:id/close
func (h *SupportHandler) CloseTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.support.CloseTicket(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListUserTickets handles GET /support/users/:externalId/tickets
func (h *SupportHandler) ListUserTickets(c *gin.Context) {
	externalID, ok := parseID(c, "externalId")
	if !ok {
		return
	}
	tickets, err := h.support.ListUserTickets(c.Request.Context(), externalID, queryInt(c, "limit", services.DefaultHistoryLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}
