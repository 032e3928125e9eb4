package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
)

// AccountHandler handles the chat transport's account requests
type AccountHandler struct {
	accounts  services.Accounts
	attacher  services.PhoneAttacher
	referrals services.Referrals
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts services.Accounts, attacher services.PhoneAttacher, referrals services.Referrals) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		attacher:  attacher,
		referrals: referrals,
	}
}

// Register handles POST /accounts/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	res, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// GetByExternalID handles GET /accounts/external/:externalId
func (h *AccountHandler) GetByExternalID(c *gin.Context) {
	externalID, ok := parseID(c, "externalId")
	if !ok {
		return
	}
	account, err := h.accounts.GetAccountByExternalIdentity(c.Request.Context(), externalID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetByPhone handles GET /accounts/phone/:phone
func (h *AccountHandler) GetByPhone(c *gin.Context) {
	account, err := h.accounts.GetAccountByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// AttachPhone handles POST /accounts/:id/phone
func (h *AccountHandler) AttachPhone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.AttachPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	res, err := h.attacher.AttachPhone(c.Request.Context(), id, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

// GetBalance handles GET /accounts/:id/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	balance, err := h.accounts.GetBalance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// GetHistory handles GET /accounts/:id/history?limit=
func (h *AccountHandler) GetHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	records, err := h.accounts.GetHistory(c.Request.Context(), id, queryInt(c, "limit", services.DefaultHistoryLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetSummary handles GET /accounts/:id/summary
func (h *AccountHandler) GetSummary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	summary, err := h.accounts.GetBalanceSummary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetReferralLink handles GET /accounts/:id/referral
func (h *AccountHandler) GetReferralLink(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	link, err := h.referrals.ReferralLink(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// AwardReferral handles POST /referrals
func (h *AccountHandler) AwardReferral(c *gin.Context) {
	var req models.AwardReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	fact, err := h.referrals.AwardReferral(c.Request.Context(), req.ReferrerCode, req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "referral": fact})
}
