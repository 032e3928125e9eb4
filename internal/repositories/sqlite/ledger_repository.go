package sqlite

import (
	"context"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"gorm.io/gorm"
)

// Compile-time check to ensure LedgerRepository implements the interface
var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository handles SQLite operations for LedgerRecord
type LedgerRepository struct {
	db *gorm.DB
}

// Append inserts a new ledger record
func (r *LedgerRepository) Append(ctx context.Context, record *models.LedgerRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(record).Error)
}

// FindByAccount returns the newest records of one account first
func (r *LedgerRepository) FindByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerRecord, error) {
	var records []*models.LedgerRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, translate(err)
}

// SumByCategory totals one account's records per category
func (r *LedgerRepository) SumByCategory(ctx context.Context, accountID int64) (map[string]int64, error) {
	var rows []struct {
		Category string
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&models.LedgerRecord{}).
		Select("category, SUM(amount) AS total").
		Where("account_id = ?", accountID).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	sums := make(map[string]int64, len(rows))
	for _, row := range rows {
		sums[row.Category] = row.Total
	}
	return sums, nil
}

// DailyTotals groups accruals per day and category, newest day first.
// Zero from/to leave that side of the window open.
func (r *LedgerRepository) DailyTotals(ctx context.Context, from, to time.Time, limit int) ([]*models.DailyPoints, error) {
	q := r.db.WithContext(ctx).Model(&models.LedgerRecord{}).
		Select("date(created_at) AS date, category, SUM(amount) AS total")
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("created_at <= ?", to.UTC())
	}
	var rows []*models.DailyPoints
	err := q.Group("date(created_at), category").
		Order("date DESC, category").
		Limit(limit).
		Scan(&rows).Error
	return rows, translate(err)
}

// Reconcile lists accounts whose balances differ from their ledger sums
func (r *LedgerRepository) Reconcile(ctx context.Context) ([]*models.ReconciliationEntry, error) {
	var entries []*models.ReconciliationEntry
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.id AS account_id,
		       a.points_manual AS points_manual,
		       a.points_referral AS points_referral,
		       COALESCE(SUM(CASE WHEN l.category != 'referral' THEN l.amount ELSE 0 END), 0) AS ledger_manual,
		       COALESCE(SUM(CASE WHEN l.category = 'referral' THEN l.amount ELSE 0 END), 0) AS ledger_referral
		FROM accounts a
		LEFT JOIN ledger_records l ON l.account_id = a.id
		GROUP BY a.id, a.points_manual, a.points_referral
		HAVING a.points_manual != ledger_manual OR a.points_referral != ledger_referral
		ORDER BY a.id`).Scan(&entries).Error
	return entries, translate(err)
}
