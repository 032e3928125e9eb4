package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

// newStore connects to the replica set named by LOYALTY_TEST_MONGO_URI and
// returns a store over a throwaway database.
func newStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("LOYALTY_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("LOYALTY_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("loyalty_test_" + uuid.NewString()[:8])
	store := NewStore(client, db)
	require.NoError(t, store.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return store
}

func TestAccountRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	repos := store.Repositories()

	phone := "89991234567"
	account := &models.Account{Phone: &phone, ReferralCode: "MONGO001"}
	require.NoError(t, repos.Accounts.Create(ctx, account))
	assert.NotZero(t, account.ID)

	dup := &models.Account{Phone: &phone, ReferralCode: "MONGO002"}
	assert.True(t, errors.Is(repos.Accounts.Create(ctx, dup), repositories.ErrDuplicate))

	require.NoError(t, repos.Accounts.IncrementBalance(ctx, account.ID, models.BalanceReferral, 100, time.Now()))
	got, err := repos.Accounts.FindByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.PointsReferral)

	_, err = repos.Accounts.FindByExternalID(ctx, 404)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestTransactionAborts(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	account := &models.Account{ReferralCode: "MONGO003"}
	require.NoError(t, store.Repositories().Accounts.Create(ctx, account))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		if err := repos.Accounts.IncrementBalance(ctx, account.ID, models.BalanceManual, 25, time.Now()); err != nil {
			return err
		}
		if err := repos.Ledger.Append(ctx, &models.LedgerRecord{AccountID: account.ID, Category: models.CategoryManual, Amount: 25}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Repositories().Accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PointsManual)

	records, err := store.Repositories().Ledger.FindByAccount(ctx, account.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBackupUnsupported(t *testing.T) {
	store := NewStore(nil, nil)
	_, err := store.Backup(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, repositories.ErrUnsupported)
}
