package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/loyaltybot-backend/internal/middleware"
	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
)

// AdminHandler handles operator requests
type AdminHandler struct {
	admin services.Admin
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin services.Admin) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListAccounts handles GET /admin/accounts?limit=
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.admin.ListAccounts(c.Request.Context(), queryInt(c, "limit", services.DefaultListLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// SearchAccounts handles GET /admin/accounts/search?q=
func (h *AdminHandler) SearchAccounts(c *gin.Context) {
	accounts, err := h.admin.SearchAccounts(c.Request.Context(), c.Query("q"), queryInt(c, "limit", services.DefaultListLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccount handles GET /admin/accounts/:id
func (h *AdminHandler) GetAccount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.admin.GetAccountDetail(c.Request.Context(), id, queryInt(c, "history", services.DefaultHistoryLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// AddAccount handles POST /admin/accounts
func (h *AdminHandler) AddAccount(c *gin.Context) {
	var req models.AddAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	res, err := h.admin.AddAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if res.IsNew {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// AdjustPoints handles POST /admin/accounts/:id/points
func (h *AdminHandler) AdjustPoints(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	record, err := h.admin.AdjustPoints(c.Request.Context(), c.GetInt64(middleware.OperatorIDKey), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": record})
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PointStats handles GET /admin/stats/points?days=
func (h *AdminHandler) PointStats(c *gin.Context) {
	rows, err := h.admin.DailyPointStats(c.Request.Context(), queryInt(c, "days", 30))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": rows})
}

// Reconcile handles GET /admin/reconcile
func (h *AdminHandler) Reconcile(c *gin.Context) {
	entries, err := h.admin.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mismatches": entries})
}

// DeleteEmpty handles POST /admin/maintenance/empty
func (h *AdminHandler) DeleteEmpty(c *gin.Context) {
	h.maintenance(c, h.admin.DeleteEmptyAccounts)
}

// CleanDuplicates handles POST /admin/maintenance/duplicates
func (h *AdminHandler) CleanDuplicates(c *gin.Context) {
	h.maintenance(c, h.admin.CleanDuplicatePhones)
}

// SafeCleanup handles POST /admin/maintenance/cleanup
func (h *AdminHandler) SafeCleanup(c *gin.Context) {
	h.maintenance(c, h.admin.SafeCleanup)
}

// Backup handles POST /admin/maintenance/backup
func (h *AdminHandler) Backup(c *gin.Context) {
	path, err := h.admin.Backup(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "backupPath": path})
}

func (h *AdminHandler) maintenance(c *gin.Context, op func(ctx context.Context) (*services.CleanupReport, error)) {
	report, err := op(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
