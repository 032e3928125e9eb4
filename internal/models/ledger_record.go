package models

import "time"

// LedgerCategory tags the origin of a point movement.
type LedgerCategory string

const (
	CategoryManual    LedgerCategory = "manual"
	CategoryReferral  LedgerCategory = "referral"
	CategoryWelcome   LedgerCategory = "welcome"
	CategoryAdmin     LedgerCategory = "admin"
	CategoryMigration LedgerCategory = "migration"
)

// BalanceField names the account balance a category is credited to.
type BalanceField string

const (
	BalanceManual   BalanceField = "manual"
	BalanceReferral BalanceField = "referral"
)

// BalanceField resolves the balance a category moves. The second value is
// false for categories outside the known set; those are credited to manual.
func (c LedgerCategory) BalanceField() (BalanceField, bool) {
	switch c {
	case CategoryReferral:
		return BalanceReferral, true
	case CategoryManual, CategoryWelcome, CategoryAdmin, CategoryMigration:
		return BalanceManual, true
	default:
		return BalanceManual, false
	}
}

// LedgerRecord is one append-only point movement. Records are never updated
// or deleted, including when the owning account is merged away.
type LedgerRecord struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" bson:"_id" json:"id"`
	AccountID   int64          `gorm:"not null;index:idx_ledger_account_created,priority:1" bson:"accountId" json:"accountId"`
	Category    LedgerCategory `gorm:"size:20;not null" bson:"category" json:"category"`
	Amount      int64          `gorm:"not null" bson:"amount" json:"amount"`
	Description string         `gorm:"size:255" bson:"description" json:"description"`
	CreatedAt   time.Time      `gorm:"not null;index:idx_ledger_account_created,priority:2" bson:"createdAt" json:"createdAt"`
}

// TableName pins the table name used by the sqlite store.
func (LedgerRecord) TableName() string { return "ledger_records" }

// DailyPoints is one row of the per-day, per-category accrual statistics.
type DailyPoints struct {
	Date     string         `json:"date"`
	Category LedgerCategory `json:"category"`
	Total    int64          `json:"total"`
}

// ReconciliationEntry reports an account whose ledger sums disagree with its balances.
type ReconciliationEntry struct {
	AccountID      int64 `json:"accountId"`
	PointsManual   int64 `json:"pointsManual"`
	PointsReferral int64 `json:"pointsReferral"`
	LedgerManual   int64 `json:"ledgerManual"`
	LedgerReferral int64 `json:"ledgerReferral"`
}
