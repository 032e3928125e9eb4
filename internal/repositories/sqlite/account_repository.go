package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"gorm.io/gorm"
)

// Compile-time check to ensure AccountRepository implements the interface
var _ repositories.AccountRepository = (*AccountRepository)(nil)

// AccountRepository handles SQLite operations for Account
type AccountRepository struct {
	db *gorm.DB
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByExternalID finds an account by its chat identity
func (r *AccountRepository) FindByExternalID(ctx context.Context, externalID int64) (*models.Account, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

// FindByPhone finds an account by normalized phone
func (r *AccountRepository) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	return r.first(ctx, "phone = ?", phone)
}

// FindByReferralCode finds an account by referral code
func (r *AccountRepository) FindByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	return r.first(ctx, "referral_code = ?", code)
}

// ReferralCodeExists reports whether any account already uses code
func (r *AccountRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("referral_code = ?", code).Count(&count).Error
	return count > 0, translate(err)
}

// UpdateProfile writes identity and profile columns, never balances
func (r *AccountRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"external_id":   account.ExternalID,
		"phone":         account.Phone,
		"display_name":  account.DisplayName,
		"surname":       account.Surname,
		"handle":        account.Handle,
		"referral_code": account.ReferralCode,
		"invited_by":    account.InvitedBy,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// IncrementBalance adds amount to one balance column and stamps its update time
func (r *AccountRepository) IncrementBalance(ctx context.Context, id int64, field models.BalanceField, amount int64, at time.Time) error {
	column, stamp := "points_manual", "last_manual_update"
	if field == models.BalanceReferral {
		column, stamp = "points_referral", "last_referral_update"
	}
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		column: gorm.Expr(column+" + ?", amount),
		stamp:  at,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete deletes an account by ID
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Account{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// List returns the most recent accounts first
func (r *AccountRepository) List(ctx context.Context, limit int) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&accounts).Error
	return accounts, translate(err)
}

// SearchByPhone finds accounts whose phone contains fragment
func (r *AccountRepository) SearchByPhone(ctx context.Context, fragment string, limit int) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.WithContext(ctx).
		Where(`phone LIKE ? ESCAPE '\'`, likePattern(fragment)).
		Order("id DESC").Limit(limit).Find(&accounts).Error
	return accounts, translate(err)
}

// SearchByName finds accounts whose name, surname or handle contains fragment
func (r *AccountRepository) SearchByName(ctx context.Context, fragment string, limit int) ([]*models.Account, error) {
	var accounts []*models.Account
	pattern := likePattern(fragment)
	err := r.db.WithContext(ctx).
		Where(`display_name LIKE ? ESCAPE '\' OR surname LIKE ? ESCAPE '\' OR handle LIKE ? ESCAPE '\'`, pattern, pattern, pattern).
		Order("id DESC").Limit(limit).Find(&accounts).Error
	return accounts, translate(err)
}

// Stats aggregates account counts and point totals
func (r *AccountRepository) Stats(ctx context.Context) (*models.AccountStats, error) {
	var stats models.AccountStats
	db := r.db.WithContext(ctx).Model(&models.Account{})
	if err := db.Count(&stats.TotalAccounts).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("phone IS NOT NULL AND phone != ''").
		Count(&stats.AccountsWithPhone).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("COALESCE(SUM(points_manual + points_referral), 0)").
		Scan(&stats.TotalPoints).Error; err != nil {
		return nil, translate(err)
	}
	if stats.TotalAccounts > 0 {
		stats.AveragePoints = float64(stats.TotalPoints) / float64(stats.TotalAccounts)
	}
	return &stats, nil
}

// DeleteWithoutPhoneOrIdentity removes accounts that can never be reached again
func (r *AccountRepository) DeleteWithoutPhoneOrIdentity(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(phone IS NULL OR phone = '') AND (external_id IS NULL OR external_id = 0)").
		Delete(&models.Account{})
	return res.RowsAffected, translate(res.Error)
}

// DeleteDuplicatePhones keeps the highest id per phone and deletes the rest
func (r *AccountRepository) DeleteDuplicatePhones(ctx context.Context) (int64, error) {
	var dups []struct {
		Phone string
		MaxID int64
	}
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("phone, MAX(id) AS max_id").
		Where("phone IS NOT NULL AND phone != ''").
		Group("phone").
		Having("COUNT(id) > 1").
		Scan(&dups).Error
	if err != nil {
		return 0, translate(err)
	}

	var total int64
	for _, d := range dups {
		res := r.db.WithContext(ctx).Where("phone = ? AND id != ?", d.Phone, d.MaxID).Delete(&models.Account{})
		if res.Error != nil {
			return total, fmt.Errorf("delete duplicates of %s: %w", d.Phone, translate(res.Error))
		}
		total += res.RowsAffected
	}
	return total, nil
}

func (r *AccountRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where(query, args...).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}
