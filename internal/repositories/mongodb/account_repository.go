package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure AccountRepository implements the interface
var _ repositories.AccountRepository = (*AccountRepository)(nil)

// AccountRepository handles MongoDB operations for Account
type AccountRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	id, err := nextID(ctx, r.counters, accountsCollection)
	if err != nil {
		return err
	}
	account.ID = id
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err = r.collection.InsertOne(ctx, account)
	return translate(err)
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByExternalID finds an account by its chat identity
func (r *AccountRepository) FindByExternalID(ctx context.Context, externalID int64) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"externalId": externalID})
}

// FindByPhone finds an account by normalized phone
func (r *AccountRepository) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

// FindByReferralCode finds an account by referral code
func (r *AccountRepository) FindByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"referralCode": code})
}

// ReferralCodeExists reports whether any account already uses code
func (r *AccountRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"referralCode": code}, options.Count().SetLimit(1))
	return n > 0, translate(err)
}

// UpdateProfile writes identity and profile fields, never balances
func (r *AccountRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	set := bson.M{
		"displayName":  account.DisplayName,
		"surname":      account.Surname,
		"handle":       account.Handle,
		"referralCode": account.ReferralCode,
		"invitedBy":    account.InvitedBy,
	}
	unset := bson.M{}
	if account.Phone != nil {
		set["phone"] = *account.Phone
	} else {
		unset["phone"] = ""
	}
	if account.ExternalID != nil {
		set["externalId"] = *account.ExternalID
	} else {
		unset["externalId"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": account.ID}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// IncrementBalance atomically adds amount to one balance and stamps its update time
func (r *AccountRepository) IncrementBalance(ctx context.Context, id int64, field models.BalanceField, amount int64, at time.Time) error {
	points, stamp := "pointsManual", "lastManualUpdate"
	if field == models.BalanceReferral {
		points, stamp = "pointsReferral", "lastReferralUpdate"
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{points: amount},
		"$set": bson.M{stamp: at},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete deletes an account by ID
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// List returns the most recent accounts first
func (r *AccountRepository) List(ctx context.Context, limit int) ([]*models.Account, error) {
	return r.find(ctx, bson.M{}, limit)
}

// SearchByPhone finds accounts whose phone contains fragment
func (r *AccountRepository) SearchByPhone(ctx context.Context, fragment string, limit int) ([]*models.Account, error) {
	return r.find(ctx, bson.M{"phone": bson.M{"$regex": regexp.QuoteMeta(fragment)}}, limit)
}

// SearchByName finds accounts whose name, surname or handle contains fragment
func (r *AccountRepository) SearchByName(ctx context.Context, fragment string, limit int) ([]*models.Account, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(fragment), "$options": "i"}
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"displayName": pattern},
		bson.M{"surname": pattern},
		bson.M{"handle": pattern},
	}}, limit)
}

// Stats aggregates account counts and point totals
func (r *AccountRepository) Stats(ctx context.Context) (*models.AccountStats, error) {
	var stats models.AccountStats
	var err error
	if stats.TotalAccounts, err = r.collection.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, translate(err)
	}
	if stats.AccountsWithPhone, err = r.collection.CountDocuments(ctx, bson.M{"phone": bson.M{"$type": "string", "$ne": ""}}); err != nil {
		return nil, translate(err)
	}

	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$add": bson.A{"$pointsManual", "$pointsReferral"}}},
		}}},
	})
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translate(err)
	}
	if len(rows) > 0 {
		stats.TotalPoints = rows[0].Total
	}
	if stats.TotalAccounts > 0 {
		stats.AveragePoints = float64(stats.TotalPoints) / float64(stats.TotalAccounts)
	}
	return &stats, nil
}

// DeleteWithoutPhoneOrIdentity removes accounts that can never be reached again
func (r *AccountRepository) DeleteWithoutPhoneOrIdentity(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"$and": bson.A{
		bson.M{"$or": bson.A{bson.M{"phone": nil}, bson.M{"phone": ""}}},
		bson.M{"$or": bson.A{bson.M{"externalId": nil}, bson.M{"externalId": 0}}},
	}})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

// DeleteDuplicatePhones keeps the highest id per phone and deletes the rest
func (r *AccountRepository) DeleteDuplicatePhones(ctx context.Context) (int64, error) {
	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"phone": bson.M{"$type": "string", "$ne": ""}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$phone",
			"count": bson.M{"$sum": 1},
			"maxId": bson.M{"$max": "$_id"},
		}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
	})
	if err != nil {
		return 0, translate(err)
	}
	defer cursor.Close(ctx)

	var dups []struct {
		Phone string `bson:"_id"`
		MaxID int64  `bson:"maxId"`
	}
	if err := cursor.All(ctx, &dups); err != nil {
		return 0, translate(err)
	}

	var total int64
	for _, d := range dups {
		res, err := r.collection.DeleteMany(ctx, bson.M{"phone": d.Phone, "_id": bson.M{"$ne": d.MaxID}})
		if err != nil {
			return total, fmt.Errorf("delete duplicates of %s: %w", d.Phone, translate(err))
		}
		total += res.DeletedCount
	}
	return total, nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	if err := r.collection.FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *AccountRepository) find(ctx context.Context, filter bson.M, limit int) ([]*models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var accounts []*models.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, translate(err)
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	return accounts, nil
}
