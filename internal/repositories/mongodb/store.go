package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Collection names
const (
	accountsCollection = "accounts"
	ledgerCollection   = "ledger_records"
	referralCollection = "referrals"
	ticketCollection   = "support_tickets"
	countersCollection = "counters"
)

// Compile-time check to ensure Store implements the interface
var _ repositories.Store = (*Store)(nil)

// Store is the MongoDB-backed datastore. Transactions require a replica set.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore wraps a connected client and its database.
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db}
}

// EnsureIndexes creates the uniqueness and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	accountIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName("uniq_phone").SetUnique(true).
				SetPartialFilterExpression(bson.M{"phone": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "externalId", Value: 1}},
			Options: options.Index().SetName("uniq_external_id").SetUnique(true).
				SetPartialFilterExpression(bson.M{"externalId": bson.M{"$type": "long"}}),
		},
		{
			Keys:    bson.D{{Key: "referralCode", Value: 1}},
			Options: options.Index().SetName("uniq_referral_code").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "invitedBy", Value: 1}},
			Options: options.Index().SetName("idx_invited_by"),
		},
	}
	if _, err := s.db.Collection(accountsCollection).Indexes().CreateMany(ctx, accountIndexes); err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}

	if _, err := s.db.Collection(ledgerCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "accountId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_ledger_account_created"),
	}); err != nil {
		return fmt.Errorf("ledger indexes: %w", err)
	}

	if _, err := s.db.Collection(referralCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "referrerCode", Value: 1}},
		Options: options.Index().SetName("idx_referrer_code"),
	}); err != nil {
		return fmt.Errorf("referral indexes: %w", err)
	}

	ticketIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetName("idx_ticket_user")},
		{Keys: bson.D{{Key: "groupMessageId", Value: 1}}, Options: options.Index().SetName("idx_ticket_group_message")},
	}
	if _, err := s.db.Collection(ticketCollection).Indexes().CreateMany(ctx, ticketIndexes); err != nil {
		return fmt.Errorf("ticket indexes: %w", err)
	}
	return nil
}

// Repositories returns repositories that run outside any session.
func (s *Store) Repositories() repositories.Repositories {
	return reposFor(s.db)
}

// Transaction runs fn in a multi-document transaction. The driver re-runs fn
// on transient transaction errors, so fn must re-read everything it uses.
func (s *Store) Transaction(ctx context.Context, fn repositories.TxFunc) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, reposFor(s.db))
	}, txnOpts)
	return translate(err)
}

// Backup is not available for MongoDB; use mongodump.
func (s *Store) Backup(ctx context.Context, dir string) (string, error) {
	return "", repositories.ErrUnsupported
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func reposFor(db *mongo.Database) repositories.Repositories {
	return repositories.Repositories{
		Accounts:  &AccountRepository{collection: db.Collection(accountsCollection), counters: db.Collection(countersCollection)},
		Ledger:    &LedgerRepository{collection: db.Collection(ledgerCollection), counters: db.Collection(countersCollection)},
		Referrals: &ReferralRepository{collection: db.Collection(referralCollection), counters: db.Collection(countersCollection)},
		Tickets:   &SupportTicketRepository{collection: db.Collection(ticketCollection), counters: db.Collection(countersCollection)},
	}
}

// nextID allocates the next numeric id for a collection. Ids allocated inside
// an aborted transaction roll back with it, so committed ids are never reused.
func nextID(ctx context.Context, counters *mongo.Collection, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", name, translate(err))
	}
	return doc.Seq, nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repositories.ErrDuplicate, err)
	default:
		return err
	}
}
