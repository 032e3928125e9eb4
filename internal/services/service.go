package services

import (
	"context"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
)

// Ledger defines the interface for point movements
type Ledger interface {
	// ApplyPoints moves amount into the balance selected by category and records it
	ApplyPoints(ctx context.Context, accountID int64, category models.LedgerCategory, amount int64, description string) (*models.LedgerRecord, error)
}

// PhoneAttacher defines the interface for linking phones to accounts
type PhoneAttacher interface {
	// AttachPhone links a phone, merging any account that already holds it
	AttachPhone(ctx context.Context, accountID int64, rawPhone string) (*AttachResult, error)
}

// Referrals defines the interface for referral operations
type Referrals interface {
	// AwardReferral credits both sides of a referral once
	AwardReferral(ctx context.Context, referrerCode string, newAccountID int64) (*models.ReferralFact, error)

	// ReferralLink builds the invite link of an account
	ReferralLink(ctx context.Context, accountID int64) (*models.ReferralLink, error)
}

// Accounts defines the interface for registration and account reads
type Accounts interface {
	Register(ctx context.Context, req models.RegisterRequest) (*RegisterResult, error)
	GetAccountByExternalIdentity(ctx context.Context, externalID int64) (*models.Account, error)
	GetAccountByPhone(ctx context.Context, rawPhone string) (*models.Account, error)
	GetBalance(ctx context.Context, accountID int64) (*models.Balance, error)
	GetHistory(ctx context.Context, accountID int64, limit int) ([]*models.LedgerRecord, error)
	GetBalanceSummary(ctx context.Context, accountID int64) (*models.BalanceSummary, error)
}

// Admin defines the interface for the operator surface
type Admin interface {
	ListAccounts(ctx context.Context, limit int) ([]*models.Account, error)
	SearchAccounts(ctx context.Context, query string, limit int) ([]*models.Account, error)
	GetAccountDetail(ctx context.Context, accountID int64, historyLimit int) (*AccountDetail, error)
	AdjustPoints(ctx context.Context, operatorID, accountID int64, req models.AdjustPointsRequest) (*models.LedgerRecord, error)
	AddAccount(ctx context.Context, req models.AddAccountRequest) (*models.AddAccountResult, error)
	Stats(ctx context.Context) (*models.AccountStats, error)
	DailyPointStats(ctx context.Context, days int) ([]*models.DailyPoints, error)
	Reconcile(ctx context.Context) ([]*models.ReconciliationEntry, error)

	// Maintenance deletes rows outright, without ledger records
	DeleteEmptyAccounts(ctx context.Context) (*CleanupReport, error)
	CleanDuplicatePhones(ctx context.Context) (*CleanupReport, error)
	SafeCleanup(ctx context.Context) (*CleanupReport, error)
	Backup(ctx context.Context) (string, error)
}

// Support defines the interface for the support ticket relay
type Support interface {
	CreateTicket(ctx context.Context, req models.CreateTicketRequest) (*models.SupportTicket, error)
	AnswerTicket(ctx context.Context, req models.AnswerTicketRequest) (*models.SupportTicket, error)
	CloseTicket(ctx context.Context, ticketID int64) error
	ListUserTickets(ctx context.Context, externalID int64, limit int) ([]*models.SupportTicket, error)
}

// Auth defines the interface for operator authentication
type Auth interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(token string) (int64, error)
}

var (
	_ Ledger        = (*LedgerService)(nil)
	_ PhoneAttacher = (*MergeService)(nil)
	_ Referrals     = (*ReferralService)(nil)
	_ Accounts      = (*AccountService)(nil)
	_ Admin         = (*AdminService)(nil)
	_ Support       = (*SupportService)(nil)
	_ Auth          = (*AuthService)(nil)
)
