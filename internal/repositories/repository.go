package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("uniqueness constraint violated")
	// ErrUnsupported is returned by backends that cannot perform an operation.
	ErrUnsupported = errors.New("operation not supported by this store")
)

// AccountRepository defines the interface for account data operations.
// Balances are only ever written through IncrementBalance.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByExternalID(ctx context.Context, externalID int64) (*models.Account, error)
	FindByPhone(ctx context.Context, phone string) (*models.Account, error)
	FindByReferralCode(ctx context.Context, code string) (*models.Account, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	// UpdateProfile writes every non-balance column of the account.
	UpdateProfile(ctx context.Context, account *models.Account) error
	IncrementBalance(ctx context.Context, id int64, field models.BalanceField, amount int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit int) ([]*models.Account, error)
	SearchByPhone(ctx context.Context, fragment string, limit int) ([]*models.Account, error)
	SearchByName(ctx context.Context, fragment string, limit int) ([]*models.Account, error)
	Stats(ctx context.Context) (*models.AccountStats, error)
	DeleteWithoutPhoneOrIdentity(ctx context.Context) (int64, error)
	DeleteDuplicatePhones(ctx context.Context) (int64, error)
}

// LedgerRepository defines the interface for the append-only points ledger
type LedgerRepository interface {
	Append(ctx context.Context, record *models.LedgerRecord) error
	FindByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerRecord, error)
	SumByCategory(ctx context.Context, accountID int64) (map[string]int64, error)
	DailyTotals(ctx context.Context, from, to time.Time, limit int) ([]*models.DailyPoints, error)
	Reconcile(ctx context.Context) ([]*models.ReconciliationEntry, error)
}

// ReferralRepository defines the interface for referral audit rows
type ReferralRepository interface {
	Create(ctx context.Context, fact *models.ReferralFact) error
	CountByReferrer(ctx context.Context, code string) (int64, error)
}

// SupportTicketRepository defines the interface for support ticket operations
type SupportTicketRepository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	FindByID(ctx context.Context, id int64) (*models.SupportTicket, error)
	FindByGroupMessage(ctx context.Context, groupMessageID int64) (*models.SupportTicket, error)
	MarkAnswered(ctx context.Context, id int64, answer string, at time.Time) error
	Close(ctx context.Context, id int64) error
	FindByUser(ctx context.Context, externalID int64, limit int) ([]*models.SupportTicket, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Accounts  AccountRepository
	Ledger    LedgerRepository
	Referrals ReferralRepository
	Tickets   SupportTicketRepository
}

// TxFunc is the body of a transaction. Every repository it receives, and the
// context it is handed, belongs to the transaction.
type TxFunc func(ctx context.Context, repos Repositories) error

// Store is the datastore handle injected into every service.
type Store interface {
	// Repositories returns handles that run outside any transaction.
	Repositories() Repositories
	// Transaction runs fn in a single serializable transaction. Returning an
	// error from fn rolls back every write it made.
	Transaction(ctx context.Context, fn TxFunc) error
	// Backup writes a consistent snapshot into dir and returns its path.
	Backup(ctx context.Context, dir string) (string, error)
	Close(ctx context.Context) error
}
