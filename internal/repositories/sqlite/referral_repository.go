package sqlite

import (
	"context"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"gorm.io/gorm"
)

// Compile-time check to ensure ReferralRepository implements the interface
var _ repositories.ReferralRepository = (*ReferralRepository)(nil)

// ReferralRepository handles SQLite operations for ReferralFact
type ReferralRepository struct {
	db *gorm.DB
}

// Create inserts a referral audit row
func (r *ReferralRepository) Create(ctx context.Context, fact *models.ReferralFact) error {
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(fact).Error)
}

// CountByReferrer counts referral rows credited to code
func (r *ReferralRepository) CountByReferrer(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReferralFact{}).Where("referrer_code = ?", code).Count(&count).Error
	return count, translate(err)
}
