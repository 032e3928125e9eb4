package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

// ReferralService pays referral bonuses and builds invite links
type ReferralService struct {
	core
	botUsername string
}

// NewReferralService creates a new ReferralService
func NewReferralService(opts Options, botUsername string) *ReferralService {
	return &ReferralService{core: newCore(opts), botUsername: botUsername}
}

// AwardReferral credits the referrer and the new account and records the
// referral, all in one transaction. It is not idempotent; callers invoke it
// once per registration.
func (s *ReferralService) AwardReferral(ctx context.Context, referrerCode string, newAccountID int64) (*models.ReferralFact, error) {
	referrerCode = strings.TrimSpace(referrerCode)
	if referrerCode == "" {
		return nil, fmt.Errorf("%w: empty referral code", ErrAccountNotFound)
	}

	var (
		fact    *models.ReferralFact
		records []*models.LedgerRecord
	)
	err := s.runTx(ctx, "award_referral", func(ctx context.Context, repos repositories.Repositories) error {
		f, recs, err := s.awardReferralTx(ctx, repos, referrerCode, newAccountID)
		if err != nil {
			return err
		}
		fact, records = f, recs
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observe(records...)
	s.metrics.ObserveReferral()
	s.logger.Info("Referral awarded",
		zap.String("referrer_code", fact.ReferrerCode),
		zap.Int64("account_id", newAccountID))
	return fact, nil
}

// ReferralLink returns the invite link for an account and how many people used it.
func (s *ReferralService) ReferralLink(ctx context.Context, accountID int64) (*models.ReferralLink, error) {
	repos := s.store.Repositories()
	account, err := repos.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, classify("referral_link", notFound(err, "account %d", accountID))
	}
	invited, err := repos.Referrals.CountByReferrer(ctx, account.ReferralCode)
	if err != nil {
		return nil, classify("referral_link", err)
	}
	return &models.ReferralLink{
		AccountID:    account.ID,
		ReferralCode: account.ReferralCode,
		Link:         fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, account.ReferralCode),
		Invited:      invited,
	}, nil
}
