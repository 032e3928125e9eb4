package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

// History page sizes.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// RegisterResult is returned by Register.
type RegisterResult struct {
	Account         *models.Account      `json:"account"`
	Created         bool                 `json:"created"`
	Referral        *models.ReferralFact `json:"referral,omitempty"`
	ReferralIgnored string               `json:"referralIgnored,omitempty"`
}

// AccountService registers chat users and serves read-only account views
type AccountService struct {
	core
}

// NewAccountService creates a new AccountService
func NewAccountService(opts Options) *AccountService {
	return &AccountService{core: newCore(opts)}
}

// Register returns the account of a known chat identity, filling in profile
// fields it lacks, or creates a new one. A new account created with a
// resolvable referrer code is credited together with its referrer in the
// same transaction.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*RegisterResult, error) {
	referrerCode := strings.TrimSpace(req.ReferrerCode)

	var (
		result  *RegisterResult
		records []*models.LedgerRecord
	)
	err := s.runTx(ctx, "register", func(ctx context.Context, repos repositories.Repositories) error {
		result, records = nil, nil

		existing, err := repos.Accounts.FindByExternalID(ctx, req.ExternalID)
		switch {
		case err == nil:
			if fillProfile(existing, req) {
				if err := repos.Accounts.UpdateProfile(ctx, existing); err != nil {
					return fmt.Errorf("update profile: %w", err)
				}
			}
			result = &RegisterResult{Account: existing}
			return nil
		case !errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("look up external identity: %w", err)
		}

		code, err := s.newReferralCode(ctx, repos.Accounts)
		if err != nil {
			return fmt.Errorf("referral code: %w", err)
		}
		externalID := req.ExternalID
		account := &models.Account{
			ExternalID:   &externalID,
			DisplayName:  req.DisplayName,
			Surname:      req.Surname,
			Handle:       req.Handle,
			ReferralCode: code,
			CreatedAt:    s.now(),
		}
		if err := repos.Accounts.Create(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		result = &RegisterResult{Account: account, Created: true}

		if referrerCode == "" {
			return nil
		}
		fact, recs, err := s.awardReferralTx(ctx, repos, referrerCode, account.ID)
		switch {
		case err == nil:
			result.Referral = fact
			records = recs
		case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrSelfReferral):
			// An unknown code never blocks registration.
			result.ReferralIgnored = err.Error()
		default:
			return err
		}

		fresh, err := repos.Accounts.FindByID(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}
		result.Account = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observe(records...)
	if result.Referral != nil {
		s.metrics.ObserveReferral()
	}
	if result.Created {
		s.logger.Info("Account registered",
			zap.Int64("account_id", result.Account.ID),
			zap.Int64("external_id", req.ExternalID),
			zap.Bool("referred", result.Referral != nil))
	}
	return result, nil
}

// fillProfile copies non-empty request fields into unset account fields.
func fillProfile(account *models.Account, req models.RegisterRequest) bool {
	changed := false
	set := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	set(&account.DisplayName, req.DisplayName)
	set(&account.Surname, req.Surname)
	set(&account.Handle, req.Handle)
	return changed
}

// GetAccountByExternalIdentity retrieves an account by chat identity
func (s *AccountService) GetAccountByExternalIdentity(ctx context.Context, externalID int64) (*models.Account, error) {
	account, err := s.store.Repositories().Accounts.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, classify("get_account", notFound(err, "external identity %d", externalID))
	}
	return account, nil
}

// GetAccountByPhone retrieves an account by phone in any accepted format
func (s *AccountService) GetAccountByPhone(ctx context.Context, rawPhone string) (*models.Account, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	account, err := s.store.Repositories().Accounts.FindByPhone(ctx, phone)
	if err != nil {
		return nil, classify("get_account", notFound(err, "phone %s", phone))
	}
	return account, nil
}

// GetBalance retrieves both balances of an account
func (s *AccountService) GetBalance(ctx context.Context, accountID int64) (*models.Balance, error) {
	account, err := s.store.Repositories().Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, classify("get_balance", notFound(err, "account %d", accountID))
	}
	return &models.Balance{
		AccountID: account.ID,
		Manual:    account.PointsManual,
		Referral:  account.PointsReferral,
		Total:     account.TotalPoints(),
	}, nil
}

// GetHistory retrieves the latest ledger records of an account, newest first
func (s *AccountService) GetHistory(ctx context.Context, accountID int64, limit int) ([]*models.LedgerRecord, error) {
	limit = clampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit)
	repos := s.store.Repositories()
	if _, err := repos.Accounts.FindByID(ctx, accountID); err != nil {
		return nil, classify("get_history", notFound(err, "account %d", accountID))
	}
	records, err := repos.Ledger.FindByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, classify("get_history", err)
	}
	return records, nil
}

// GetBalanceSummary combines balances, their update times and ledger totals per category
func (s *AccountService) GetBalanceSummary(ctx context.Context, accountID int64) (*models.BalanceSummary, error) {
	repos := s.store.Repositories()
	account, err := repos.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, classify("get_summary", notFound(err, "account %d", accountID))
	}
	sums, err := repos.Ledger.SumByCategory(ctx, accountID)
	if err != nil {
		return nil, classify("get_summary", err)
	}
	return &models.BalanceSummary{
		Account:            account,
		ManualPoints:       account.PointsManual,
		ReferralPoints:     account.PointsReferral,
		TotalPoints:        account.TotalPoints(),
		LastManualUpdate:   account.LastManualUpdate,
		LastReferralUpdate: account.LastReferralUpdate,
		HistorySummary:     sums,
	}, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
