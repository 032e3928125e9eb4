package models

// LoginRequest is posted by an operator to obtain an admin token.
type LoginRequest struct {
	OperatorID int64  `json:"operatorId" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
}

// LoginResponse carries the signed admin token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// RegisterRequest is sent by the chat transport on first contact.
type RegisterRequest struct {
	ExternalID   int64  `json:"externalId" binding:"required"`
	DisplayName  string `json:"displayName"`
	Surname      string `json:"surname"`
	Handle       string `json:"handle"`
	ReferrerCode string `json:"referrerCode"`
}

// AttachPhoneRequest carries a raw phone as typed or shared by the user.
type AttachPhoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// AwardReferralRequest triggers a referral award for an existing account.
type AwardReferralRequest struct {
	ReferrerCode string `json:"referrerCode" binding:"required"`
	AccountID    int64  `json:"accountId" binding:"required"`
}

// AdjustPointsRequest is an operator's signed balance adjustment.
type AdjustPointsRequest struct {
	Category    string `json:"category"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// AddAccountRequest creates a phone-only account or tops up its holder.
type AddAccountRequest struct {
	Phone       string `json:"phone" binding:"required"`
	Points      int64  `json:"points"`
	DisplayName string `json:"displayName"`
	Surname     string `json:"surname"`
}

// AddAccountResult reports what AddAccount did.
type AddAccountResult struct {
	AccountID int64  `json:"accountId"`
	Phone     string `json:"phone"`
	Points    int64  `json:"points"`
	IsNew     bool   `json:"isNew"`
}

// CreateTicketRequest is a user question to relay to staff.
type CreateTicketRequest struct {
	ExternalID int64  `json:"externalId" binding:"required"`
	Question   string `json:"question" binding:"required"`
}

// AnswerTicketRequest is a staff reply to a relayed question.
type AnswerTicketRequest struct {
	GroupMessageID int64  `json:"groupMessageId" binding:"required"`
	Answer         string `json:"answer" binding:"required"`
}
