package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/metrics"
	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"github.com/ArowuTest/loyaltybot-backend/internal/retry"
	"github.com/ArowuTest/loyaltybot-backend/internal/utils"
)

// Options carries the dependencies shared by the services.
type Options struct {
	Store   repositories.Store
	Points  config.PointsConfig
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// core holds the transaction runner and the in-transaction protocol steps
// every service builds on.
type core struct {
	store   repositories.Store
	points  config.PointsConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newCore(opts Options) core {
	c := core{
		store:   opts.Store,
		points:  opts.Points,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Clock,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

// runTx runs fn in one transaction, re-running it once on a uniqueness conflict.
func (c *core) runTx(ctx context.Context, operation string, fn repositories.TxFunc) error {
	attempts := 0
	err := retry.OnConflict(ctx, c.logger, operation, func() error {
		attempts++
		if attempts > 1 {
			c.metrics.ObserveConflictRetry(operation)
		}
		return c.store.Transaction(ctx, fn)
	})
	return classify(operation, err)
}

// applyPointsTx is the only code path that changes a balance. It must run
// inside a transaction: the balance increment, its timestamp and the ledger
// record commit or roll back together.
func (c *core) applyPointsTx(ctx context.Context, repos repositories.Repositories, accountID int64, category models.LedgerCategory, amount int64, description string) (*models.LedgerRecord, error) {
	if category == "" {
		return nil, ErrInvalidCategory
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	field, known := category.BalanceField()
	if !known {
		c.logger.Warn("Unknown ledger category credited to manual balance",
			zap.String("category", string(category)),
			zap.Int64("account_id", accountID))
	}

	account, err := repos.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, notFound(err, "account %d", accountID)
	}

	current := account.PointsManual
	if field == models.BalanceReferral {
		current = account.PointsReferral
	}
	if current+amount < 0 {
		return nil, fmt.Errorf("%w: %s balance is %d, requested %d", ErrInsufficientPoints, field, current, amount)
	}

	now := c.now()
	if err := repos.Accounts.IncrementBalance(ctx, accountID, field, amount, now); err != nil {
		return nil, notFound(err, "account %d", accountID)
	}

	record := &models.LedgerRecord{
		AccountID:   accountID,
		Category:    category,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}
	if err := repos.Ledger.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append ledger record: %w", err)
	}
	return record, nil
}

// awardReferralTx credits both sides of a referral and writes the audit fact.
func (c *core) awardReferralTx(ctx context.Context, repos repositories.Repositories, referrerCode string, newAccountID int64) (*models.ReferralFact, []*models.LedgerRecord, error) {
	referrer, err := repos.Accounts.FindByReferralCode(ctx, referrerCode)
	if err != nil {
		return nil, nil, notFound(err, "referral code %q", referrerCode)
	}
	invited, err := repos.Accounts.FindByID(ctx, newAccountID)
	if err != nil {
		return nil, nil, notFound(err, "account %d", newAccountID)
	}
	if referrer.ID == invited.ID {
		return nil, nil, ErrSelfReferral
	}

	var records []*models.LedgerRecord
	if c.points.ReferrerBonus != 0 {
		rec, err := c.applyPointsTx(ctx, repos, referrer.ID, models.CategoryReferral, c.points.ReferrerBonus,
			fmt.Sprintf("Referral bonus for inviting account #%d", invited.ID))
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}
	if c.points.NewUserBonus != 0 {
		rec, err := c.applyPointsTx(ctx, repos, invited.ID, models.CategoryReferral, c.points.NewUserBonus,
			fmt.Sprintf("Bonus for joining with referral code %s", referrer.ReferralCode))
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}

	if invited.InvitedBy == "" {
		invited.InvitedBy = referrer.ReferralCode
		if err := repos.Accounts.UpdateProfile(ctx, invited); err != nil {
			return nil, nil, fmt.Errorf("record inviter: %w", err)
		}
	}

	fact := &models.ReferralFact{
		ReferrerCode:  referrer.ReferralCode,
		ReferredPhone: invited.PhoneValue(),
		PointsAwarded: c.points.ReferrerBonus,
		CreatedAt:     c.now(),
	}
	if err := repos.Referrals.Create(ctx, fact); err != nil {
		return nil, nil, fmt.Errorf("record referral: %w", err)
	}
	return fact, records, nil
}

// observe reports committed ledger records to the metrics.
func (c *core) observe(records ...*models.LedgerRecord) {
	for _, r := range records {
		if r == nil {
			continue
		}
		c.metrics.ObserveLedgerMovement(string(r.Category), r.Amount)
		if _, known := r.Category.BalanceField(); !known {
			c.metrics.ObserveUnknownCategory(string(r.Category))
		}
		c.logger.Info("Points applied",
			zap.Int64("account_id", r.AccountID),
			zap.String("category", string(r.Category)),
			zap.Int64("amount", r.Amount),
			zap.Int64("record_id", r.ID))
	}
}

// newReferralCode draws codes until one is unused.
func (c *core) newReferralCode(ctx context.Context, accounts repositories.AccountRepository) (string, error) {
	for i := 0; i < 5; i++ {
		code, err := utils.GenerateReferralCode(utils.ReferralCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := accounts.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}
