package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	sqliterepo "github.com/ArowuTest/loyaltybot-backend/internal/repositories/sqlite"
	sqlitedb "github.com/ArowuTest/loyaltybot-backend/pkg/sqlite"
)

func TestAdminAddAccount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewAdminService(testOptions(store), t.TempDir())

	res, err := svc.AddAccount(ctx, models.AddAccountRequest{Phone: "+79991112233", Points: 40, DisplayName: "Oleg"})
	require.NoError(t, err)
	assert.True(t, res.IsNew)
	assert.Equal(t, "89991112233", res.Phone)
	assert.Equal(t, int64(40), res.Points)

	res, err = svc.AddAccount(ctx, models.AddAccountRequest{Phone: "89991112233", Points: 10})
	require.NoError(t, err)
	assert.False(t, res.IsNew)
	assert.Equal(t, int64(50), res.Points)

	records := history(t, store, res.AccountID)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, models.CategoryAdmin, r.Category)
	}

	_, err = svc.AddAccount(ctx, models.AddAccountRequest{Phone: "123"})
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = svc.AddAccount(ctx, models.AddAccountRequest{Phone: "89991112233", Points: -5})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAdminAdjustPoints(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := seedAccount(t, store, "", 20, 0)
	svc := NewAdminService(testOptions(store), t.TempDir())

	rec, err := svc.AdjustPoints(ctx, 9, account.ID, models.AdjustPointsRequest{Amount: -5})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryAdmin, rec.Category)
	assert.Equal(t, "Adjusted by operator 9", rec.Description)
	assert.Equal(t, int64(15), reload(t, store, account.ID).PointsManual)

	_, err = svc.AdjustPoints(ctx, 9, account.ID, models.AdjustPointsRequest{Amount: -100})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Len(t, history(t, store, account.ID), 2)

	rec, err = svc.AdjustPoints(ctx, 9, account.ID, models.AdjustPointsRequest{Category: "referral", Amount: 3, Description: "fix"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), reload(t, store, account.ID).PointsReferral)
	assert.Equal(t, "fix", rec.Description)
}

func TestAdminSearchAndStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	a := seedAccount(t, store, "89991234567", 10, 0)
	a.DisplayName = "Maria"
	require.NoError(t, store.Repositories().Accounts.UpdateProfile(ctx, a))
	seedAccount(t, store, "89997654321", 30, 0)
	seedAccount(t, store, "", 0, 0)
	svc := NewAdminService(testOptions(store), t.TempDir())

	found, err := svc.SearchAccounts(ctx, "+7999123", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	found, err = svc.SearchAccounts(ctx, "mari", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	found, err = svc.SearchAccounts(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := svc.ListAccounts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalAccounts)
	assert.Equal(t, int64(2), stats.AccountsWithPhone)
	assert.Equal(t, int64(40), stats.TotalPoints)

	daily, err := svc.DailyPointStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, models.CategoryManual, daily[0].Category)
	assert.Equal(t, int64(40), daily[0].Total)

	detail, err := svc.GetAccountDetail(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Len(t, detail.History, 1)
}

func TestAdminMaintenance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedAccount(t, store, "", 0, 0)
	seedAccount(t, store, "", 0, 0)
	kept := seedAccount(t, store, "89990000001", 5, 0)
	svc := NewAdminService(testOptions(store), t.TempDir())

	report, err := svc.DeleteEmptyAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.EmptyDeleted)

	report, err = svc.CleanDuplicatePhones(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.DuplicatesDeleted)

	entries, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	got := reload(t, store, kept.ID)
	assert.Equal(t, int64(5), got.PointsManual)
}

func TestAdminSafeCleanupWritesBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := sqlitedb.DefaultOptions()
	opts.LogLevel = logger.Silent
	db, err := sqlitedb.NewClient(filepath.Join(dir, "loyalty.db"), opts)
	require.NoError(t, err)
	store := sqliterepo.NewStore(db)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close(ctx) })

	seedAccount(t, store, "", 0, 0)
	seedAccount(t, store, "89990000001", 5, 0)

	svc := NewAdminService(testOptions(store), filepath.Join(dir, "backups"))
	report, err := svc.SafeCleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.EmptyDeleted)

	info, err := os.Stat(report.BackupPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
