package services

import (
	"context"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

// LedgerService applies point movements to accounts
type LedgerService struct {
	core
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(opts Options) *LedgerService {
	return &LedgerService{core: newCore(opts)}
}

// ApplyPoints adds amount to the balance selected by category and appends
// the matching ledger record in one transaction. Negative amounts are
// deductions and may not take the balance below zero.
func (s *LedgerService) ApplyPoints(ctx context.Context, accountID int64, category models.LedgerCategory, amount int64, description string) (*models.LedgerRecord, error) {
	var record *models.LedgerRecord
	err := s.runTx(ctx, "apply_points", func(ctx context.Context, repos repositories.Repositories) error {
		rec, err := s.applyPointsTx(ctx, repos, accountID, category, amount, description)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(record)
	return record, nil
}
