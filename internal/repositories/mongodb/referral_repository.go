package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure ReferralRepository implements the interface
var _ repositories.ReferralRepository = (*ReferralRepository)(nil)

// ReferralRepository handles MongoDB operations for ReferralFact
type ReferralRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// Create inserts a referral audit row
func (r *ReferralRepository) Create(ctx context.Context, fact *models.ReferralFact) error {
	id, err := nextID(ctx, r.counters, referralCollection)
	if err != nil {
		return err
	}
	fact.ID = id
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now().UTC()
	}
	_, err = r.collection.InsertOne(ctx, fact)
	return translate(err)
}

// CountByReferrer counts referral rows credited to code
func (r *ReferralRepository) CountByReferrer(ctx context.Context, code string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"referrerCode": code})
	return n, translate(err)
}
