package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	sqliterepo "github.com/ArowuTest/loyaltybot-backend/internal/repositories/sqlite"
	sqlitedb "github.com/ArowuTest/loyaltybot-backend/pkg/sqlite"
)

var testPoints = config.PointsConfig{WelcomeBonus: 250, ReferrerBonus: 100, NewUserBonus: 50}

func newTestStore(t *testing.T) *sqliterepo.Store {
	t.Helper()
	opts := sqlitedb.DefaultOptions()
	opts.LogLevel = logger.Silent
	db, err := sqlitedb.NewClient(sqlitedb.MemoryDSN(uuid.NewString()), opts)
	require.NoError(t, err)

	store := sqliterepo.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func testOptions(store repositories.Store) Options {
	return Options{Store: store, Points: testPoints}
}

// seedAccount inserts an account directly and credits it through the ledger.
func seedAccount(t *testing.T, store repositories.Store, phone string, manual, referral int64) *models.Account {
	t.Helper()
	ctx := context.Background()

	account := &models.Account{ReferralCode: "R" + uuid.NewString()[:7]}
	if phone != "" {
		p := phone
		account.Phone = &p
	}
	require.NoError(t, store.Repositories().Accounts.Create(ctx, account))

	ledger := NewLedgerService(testOptions(store))
	if manual > 0 {
		_, err := ledger.ApplyPoints(ctx, account.ID, models.CategoryManual, manual, "seed")
		require.NoError(t, err)
	}
	if referral > 0 {
		_, err := ledger.ApplyPoints(ctx, account.ID, models.CategoryReferral, referral, "seed")
		require.NoError(t, err)
	}
	return reload(t, store, account.ID)
}

func reload(t *testing.T, store repositories.Store, id int64) *models.Account {
	t.Helper()
	account, err := store.Repositories().Accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func history(t *testing.T, store repositories.Store, id int64) []*models.LedgerRecord {
	t.Helper()
	records, err := store.Repositories().Ledger.FindByAccount(context.Background(), id, 100)
	require.NoError(t, err)
	return records
}

// faultStore injects failures into transactions of a real store.
type faultStore struct {
	repositories.Store

	mu sync.Mutex
	// appendErr makes every ledger append fail.
	appendErr error
	// conflicts is the number of upcoming transactions that fail with a
	// uniqueness conflict after their body ran.
	conflicts int
	txCalls   int
}

func (f *faultStore) Transaction(ctx context.Context, fn repositories.TxFunc) error {
	f.mu.Lock()
	f.txCalls++
	appendErr := f.appendErr
	conflict := f.conflicts > 0
	if conflict {
		f.conflicts--
	}
	f.mu.Unlock()

	return f.Store.Transaction(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		if appendErr != nil {
			repos.Ledger = failingLedger{LedgerRepository: repos.Ledger, err: appendErr}
		}
		if err := fn(ctx, repos); err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("injected: %w", repositories.ErrDuplicate)
		}
		return nil
	})
}

type failingLedger struct {
	repositories.LedgerRepository
	err error
}

func (l failingLedger) Append(context.Context, *models.LedgerRecord) error { return l.err }
