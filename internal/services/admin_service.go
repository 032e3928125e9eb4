package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

// Admin listing limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// AccountDetail is an account with its latest ledger records.
type AccountDetail struct {
	Account *models.Account        `json:"account"`
	History []*models.LedgerRecord `json:"history"`
}

// CleanupReport is returned by the maintenance operations.
type CleanupReport struct {
	BackupPath        string `json:"backupPath,omitempty"`
	EmptyDeleted      int64  `json:"emptyDeleted"`
	DuplicatesDeleted int64  `json:"duplicatesDeleted"`
}

// AdminService backs the operator surface: search, adjustments, statistics
// and maintenance
type AdminService struct {
	core
	backupDir string
}

// NewAdminService creates a new AdminService
func NewAdminService(opts Options, backupDir string) *AdminService {
	return &AdminService{core: newCore(opts), backupDir: backupDir}
}

// ListAccounts returns the newest accounts first
func (s *AdminService) ListAccounts(ctx context.Context, limit int) ([]*models.Account, error) {
	accounts, err := s.store.Repositories().Accounts.List(ctx, clampLimit(limit, DefaultListLimit, MaxListLimit))
	return accounts, classify("list_accounts", err)
}

// SearchAccounts matches a phone fragment when query is numeric and a name
// fragment otherwise
func (s *AdminService) SearchAccounts(ctx context.Context, query string, limit int) ([]*models.Account, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Account{}, nil
	}
	limit = clampLimit(limit, DefaultListLimit, MaxListLimit)
	accounts := s.store.Repositories().Accounts

	if fragment, ok := phoneFragment(query); ok {
		found, err := accounts.SearchByPhone(ctx, fragment, limit)
		return found, classify("search_accounts", err)
	}
	found, err := accounts.SearchByName(ctx, query, limit)
	return found, classify("search_accounts", err)
}

// phoneFragment reports whether q looks like part of a phone and returns it
// in stored form.
func phoneFragment(q string) (string, bool) {
	q = phoneNoise.Replace(q)
	digits := strings.TrimPrefix(q, "+")
	if digits == "" {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if strings.HasPrefix(q, "+7") {
		return "8" + q[2:], true
	}
	return digits, true
}

// GetAccountDetail returns an account with its recent history
func (s *AdminService) GetAccountDetail(ctx context.Context, accountID int64, historyLimit int) (*AccountDetail, error) {
	repos := s.store.Repositories()
	account, err := repos.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, classify("account_detail", notFound(err, "account %d", accountID))
	}
	history, err := repos.Ledger.FindByAccount(ctx, accountID, clampLimit(historyLimit, DefaultHistoryLimit, MaxHistoryLimit))
	if err != nil {
		return nil, classify("account_detail", err)
	}
	return &AccountDetail{Account: account, History: history}, nil
}

// AdjustPoints applies an operator adjustment. The category defaults to admin.
func (s *AdminService) AdjustPoints(ctx context.Context, operatorID, accountID int64, req models.AdjustPointsRequest) (*models.LedgerRecord, error) {
	category := models.LedgerCategory(strings.TrimSpace(req.Category))
	if category == "" {
		category = models.CategoryAdmin
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("Adjusted by operator %d", operatorID)
	}

	var record *models.LedgerRecord
	err := s.runTx(ctx, "adjust_points", func(ctx context.Context, repos repositories.Repositories) error {
		rec, err := s.applyPointsTx(ctx, repos, accountID, category, req.Amount, description)
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
	s.logger.Info("Operator adjusted points",
		zap.Int64("operator_id", operatorID),
		zap.Int64("account_id", accountID),
		zap.Int64("amount", req.Amount))
	return record, nil
}

// AddAccount creates a phone-only account or tops up the account that holds
// the phone. Initial points go through the ledger with the admin category.
func (s *AdminService) AddAccount(ctx context.Context, req models.AddAccountRequest) (*models.AddAccountResult, error) {
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if req.Points < 0 {
		return nil, fmt.Errorf("%w: initial points must not be negative", ErrInvalidAmount)
	}

	var (
		result *models.AddAccountResult
		record *models.LedgerRecord
	)
	err = s.runTx(ctx, "add_account", func(ctx context.Context, repos repositories.Repositories) error {
		result, record = nil, nil

		account, err := repos.Accounts.FindByPhone(ctx, phone)
		isNew := false
		switch {
		case err == nil:
			if fillProfile(account, models.RegisterRequest{DisplayName: req.DisplayName, Surname: req.Surname}) {
				if err := repos.Accounts.UpdateProfile(ctx, account); err != nil {
					return fmt.Errorf("update profile: %w", err)
				}
			}
		case errors.Is(err, repositories.ErrNotFound):
			code, err := s.newReferralCode(ctx, repos.Accounts)
			if err != nil {
				return fmt.Errorf("referral code: %w", err)
			}
			p := phone
			account = &models.Account{
				Phone:        &p,
				DisplayName:  req.DisplayName,
				Surname:      req.Surname,
				ReferralCode: code,
				CreatedAt:    s.now(),
			}
			if err := repos.Accounts.Create(ctx, account); err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			isNew = true
		default:
			return fmt.Errorf("look up phone holder: %w", err)
		}

		if req.Points > 0 {
			rec, err := s.applyPointsTx(ctx, repos, account.ID, models.CategoryAdmin, req.Points, "Added by administrator")
			if err != nil {
				return err
			}
			record = rec
		}

		fresh, err := repos.Accounts.FindByID(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}
		result = &models.AddAccountResult{
			AccountID: fresh.ID,
			Phone:     phone,
			Points:    fresh.TotalPoints(),
			IsNew:     isNew,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(record)
	return result, nil
}

// Stats returns account and point totals
func (s *AdminService) Stats(ctx context.Context) (*models.AccountStats, error) {
	stats, err := s.store.Repositories().Accounts.Stats(ctx)
	return stats, classify("stats", err)
}

// DailyPointStats returns accrual totals per day and category for the last days
func (s *AdminService) DailyPointStats(ctx context.Context, days int) ([]*models.DailyPoints, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	to := s.now()
	from := to.AddDate(0, 0, -days)
	rows, err := s.store.Repositories().Ledger.DailyTotals(ctx, from, to, days*8)
	return rows, classify("daily_point_stats", err)
}

// Reconcile lists accounts whose ledger sums disagree with their balances
func (s *AdminService) Reconcile(ctx context.Context) ([]*models.ReconciliationEntry, error) {
	rows, err := s.store.Repositories().Ledger.Reconcile(ctx)
	return rows, classify("reconcile", err)
}

// DeleteEmptyAccounts removes accounts with neither a phone nor a chat identity
func (s *AdminService) DeleteEmptyAccounts(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}
	err := s.runTx(ctx, "delete_empty_accounts", func(ctx context.Context, repos repositories.Repositories) error {
		n, err := repos.Accounts.DeleteWithoutPhoneOrIdentity(ctx)
		report.EmptyDeleted = n
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Deleted empty accounts", zap.Int64("count", report.EmptyDeleted))
	return report, nil
}

// CleanDuplicatePhones keeps the newest account per phone and deletes the rest
func (s *AdminService) CleanDuplicatePhones(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}
	err := s.runTx(ctx, "clean_duplicate_phones", func(ctx context.Context, repos repositories.Repositories) error {
		n, err := repos.Accounts.DeleteDuplicatePhones(ctx)
		report.DuplicatesDeleted = n
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Deleted duplicate phone accounts", zap.Int64("count", report.DuplicatesDeleted))
	return report, nil
}

// SafeCleanup takes a backup and then runs both purges in one transaction
func (s *AdminService) SafeCleanup(ctx context.Context) (*CleanupReport, error) {
	path, err := s.Backup(ctx)
	if err != nil {
		return nil, err
	}
	report := &CleanupReport{BackupPath: path}
	err = s.runTx(ctx, "safe_cleanup", func(ctx context.Context, repos repositories.Repositories) error {
		empty, err := repos.Accounts.DeleteWithoutPhoneOrIdentity(ctx)
		if err != nil {
			return err
		}
		dups, err := repos.Accounts.DeleteDuplicatePhones(ctx)
		if err != nil {
			return err
		}
		report.EmptyDeleted, report.DuplicatesDeleted = empty, dups
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Safe cleanup finished",
		zap.String("backup", path),
		zap.Int64("empty_deleted", report.EmptyDeleted),
		zap.Int64("duplicates_deleted", report.DuplicatesDeleted))
	return report, nil
}

// Backup snapshots the datastore into the configured directory
func (s *AdminService) Backup(ctx context.Context) (string, error) {
	start := time.Now()
	path, err := s.store.Backup(ctx, s.backupDir)
	if err != nil {
		return "", classify("backup", err)
	}
	s.logger.Info("Backup written", zap.String("path", path), zap.Duration("took", time.Since(start)))
	return path, nil
}
