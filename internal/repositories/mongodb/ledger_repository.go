package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure LedgerRepository implements the interface
var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository handles MongoDB operations for LedgerRecord
type LedgerRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// Append inserts a new ledger record
func (r *LedgerRepository) Append(ctx context.Context, record *models.LedgerRecord) error {
	id, err := nextID(ctx, r.counters, ledgerCollection)
	if err != nil {
		return err
	}
	record.ID = id
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err = r.collection.InsertOne(ctx, record)
	return translate(err)
}

// FindByAccount returns the newest records of one account first
func (r *LedgerRepository) FindByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"accountId": accountID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var records []*models.LedgerRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, translate(err)
	}
	if records == nil {
		records = []*models.LedgerRecord{}
	}
	return records, nil
}

// SumByCategory totals one account's records per category
func (r *LedgerRepository) SumByCategory(ctx context.Context, accountID int64) (map[string]int64, error) {
	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"accountId": accountID}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Category string `bson:"_id"`
		Total    int64  `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translate(err)
	}
	sums := make(map[string]int64, len(rows))
	for _, row := range rows {
		sums[row.Category] = row.Total
	}
	return sums, nil
}

// DailyTotals groups accruals per day and category, newest day first
func (r *LedgerRepository) DailyTotals(ctx context.Context, from, to time.Time, limit int) ([]*models.DailyPoints, error) {
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from.UTC()
	}
	if !to.IsZero() {
		window["$lte"] = to.UTC()
	}
	match := bson.M{}
	if len(window) > 0 {
		match["createdAt"] = window
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"date":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
				"category": "$category",
			},
			"total": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.date", Value: -1}, {Key: "_id.category", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Key struct {
			Date     string `bson:"date"`
			Category string `bson:"category"`
		} `bson:"_id"`
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translate(err)
	}
	out := make([]*models.DailyPoints, 0, len(rows))
	for _, row := range rows {
		out = append(out, &models.DailyPoints{
			Date:     row.Key.Date,
			Category: models.LedgerCategory(row.Key.Category),
			Total:    row.Total,
		})
	}
	return out, nil
}

// Reconcile lists accounts whose balances differ from their ledger sums
func (r *LedgerRepository) Reconcile(ctx context.Context) ([]*models.ReconciliationEntry, error) {
	sumWhere := func(op string) bson.M {
		return bson.M{"$sum": bson.M{"$map": bson.M{
			"input": bson.M{"$filter": bson.M{
				"input": "$ledger",
				"as":    "l",
				"cond":  bson.M{op: bson.A{"$$l.category", string(models.CategoryReferral)}},
			}},
			"as": "l",
			"in": "$$l.amount",
		}}}
	}

	accounts := r.collection.Database().Collection(accountsCollection)
	cursor, err := accounts.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         ledgerCollection,
			"localField":   "_id",
			"foreignField": "accountId",
			"as":           "ledger",
		}}},
		{{Key: "$project", Value: bson.M{
			"pointsManual":   1,
			"pointsReferral": 1,
			"ledgerManual":   sumWhere("$ne"),
			"ledgerReferral": sumWhere("$eq"),
		}}},
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$or": bson.A{
			bson.M{"$ne": bson.A{"$pointsManual", "$ledgerManual"}},
			bson.M{"$ne": bson.A{"$pointsReferral", "$ledgerReferral"}},
		}}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AccountID      int64 `bson:"_id"`
		PointsManual   int64 `bson:"pointsManual"`
		PointsReferral int64 `bson:"pointsReferral"`
		LedgerManual   int64 `bson:"ledgerManual"`
		LedgerReferral int64 `bson:"ledgerReferral"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translate(err)
	}
	entries := make([]*models.ReconciliationEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &models.ReconciliationEntry{
			AccountID:      row.AccountID,
			PointsManual:   row.PointsManual,
			PointsReferral: row.PointsReferral,
			LedgerManual:   row.LedgerManual,
			LedgerReferral: row.LedgerReferral,
		})
	}
	return entries, nil
}
