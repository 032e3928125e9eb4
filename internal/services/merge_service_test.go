package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

func TestAttachPhoneRejectsBadFormat(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := seedAccount(t, store, "", 10, 0)
	svc := NewMergeService(testOptions(store))

	_, err := svc.AttachPhone(ctx, account.ID, "12345")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	got := reload(t, store, account.ID)
	assert.False(t, got.HasPhone())
	assert.Equal(t, int64(10), got.TotalPoints())
	assert.Len(t, history(t, store, account.ID), 1)
}

func TestAttachPhoneUnknownAccount(t *testing.T) {
	store := newTestStore(t)
	svc := NewMergeService(testOptions(store))

	_, err := svc.AttachPhone(context.Background(), 404, "89991234567")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAttachPhoneFirstAttachPaysWelcomeBonus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := seedAccount(t, store, "", 0, 0)
	svc := NewMergeService(testOptions(store))

	res, err := svc.AttachPhone(ctx, account.ID, "+79991234567")
	require.NoError(t, err)
	assert.Equal(t, AttachStatusAttached, res.Status)
	assert.Equal(t, int64(250), res.PointsMoved)
	assert.Equal(t, "89991234567", res.Phone)

	got := reload(t, store, account.ID)
	assert.Equal(t, "89991234567", got.PhoneValue())
	assert.Equal(t, int64(250), got.PointsManual)
	assert.Equal(t, int64(0), got.PointsReferral)

	records := history(t, store, account.ID)
	require.Len(t, records, 1)
	assert.Equal(t, models.CategoryWelcome, records[0].Category)
	assert.Equal(t, int64(250), records[0].Amount)
}

func TestAttachPhoneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := seedAccount(t, store, "89991234567", 70, 5)
	svc := NewMergeService(testOptions(store))

	res, err := svc.AttachPhone(ctx, account.ID, "79991234567")
	require.NoError(t, err)
	assert.Equal(t, AttachStatusAlreadyAttached, res.Status)
	assert.Zero(t, res.PointsMoved)

	got := reload(t, store, account.ID)
	assert.Equal(t, account.PointsManual, got.PointsManual)
	assert.Equal(t, account.PointsReferral, got.PointsReferral)
	assert.Len(t, history(t, store, account.ID), 2)
}

func TestAttachPhoneChangeHasNoBonus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := seedAccount(t, store, "89991234567", 5, 0)
	svc := NewMergeService(testOptions(store))

	res, err := svc.AttachPhone(ctx, account.ID, "89990000000")
	require.NoError(t, err)
	assert.Equal(t, AttachStatusChanged, res.Status)
	assert.Zero(t, res.PointsMoved)

	got := reload(t, store, account.ID)
	assert.Equal(t, "89990000000", got.PhoneValue())
	assert.Equal(t, int64(5), got.TotalPoints())
}

func TestAttachPhoneMergeConservesPoints(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	holder := seedAccount(t, store, "89991234567", 100, 50)
	holder.DisplayName, holder.Surname, holder.InvitedBy = "Ivan", "Petrov", "FRIEND01"
	require.NoError(t, store.Repositories().Accounts.UpdateProfile(ctx, holder))

	acting := seedAccount(t, store, "", 0, 0)
	acting.Handle = "ivan_tg"
	require.NoError(t, store.Repositories().Accounts.UpdateProfile(ctx, acting))
	before := reload(t, store, acting.ID).TotalPoints()

	svc := NewMergeService(testOptions(store))
	res, err := svc.AttachPhone(ctx, acting.ID, "+79991234567")
	require.NoError(t, err)
	assert.Equal(t, AttachStatusMerged, res.Status)
	assert.Equal(t, int64(150), res.PointsMoved)
	assert.Equal(t, holder.ID, res.MergedFrom)

	_, err = store.Repositories().Accounts.FindByID(ctx, holder.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	got := reload(t, store, acting.ID)
	assert.Equal(t, before+150, got.TotalPoints())
	assert.Equal(t, int64(100), got.PointsManual)
	assert.Equal(t, int64(50), got.PointsReferral)
	assert.Equal(t, "89991234567", got.PhoneValue())
	assert.Equal(t, "Ivan", got.DisplayName)
	assert.Equal(t, "Petrov", got.Surname)
	assert.Equal(t, "ivan_tg", got.Handle)
	assert.Equal(t, "FRIEND01", got.InvitedBy)
	assert.Equal(t, acting.ReferralCode, got.ReferralCode)

	records := history(t, store, acting.ID)
	require.Len(t, records, 2)
	byCategory := map[models.LedgerCategory]int64{}
	for _, r := range records {
		byCategory[r.Category] = r.Amount
		assert.Contains(t, r.Description, "superseded")
	}
	assert.Equal(t, map[models.LedgerCategory]int64{models.CategoryManual: 100, models.CategoryReferral: 50}, byCategory)

	// The superseded account's history stays in the ledger.
	assert.Len(t, history(t, store, holder.ID), 2)
}

func TestAttachPhoneMergeDropsLinkToSupersededInviter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	holder := seedAccount(t, store, "89991234567", 100, 0)

	acting := seedAccount(t, store, "", 0, 0)
	acting.InvitedBy = holder.ReferralCode
	require.NoError(t, store.Repositories().Accounts.UpdateProfile(ctx, acting))

	res, err := NewMergeService(testOptions(store)).AttachPhone(ctx, acting.ID, "89991234567")
	require.NoError(t, err)
	assert.Equal(t, AttachStatusMerged, res.Status)

	got := reload(t, store, acting.ID)
	assert.Empty(t, got.InvitedBy)
	assert.Equal(t, acting.ReferralCode, got.ReferralCode)
	assert.Equal(t, int64(100), got.PointsManual)
}

func TestAttachPhoneMergeFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	base := newTestStore(t)
	holder := seedAccount(t, base, "89991234567", 100, 0)
	acting := seedAccount(t, base, "", 0, 0)

	store := &faultStore{Store: base, appendErr: errors.New("io error")}
	svc := NewMergeService(testOptions(store))

	_, err := svc.AttachPhone(ctx, acting.ID, "89991234567")
	assert.ErrorIs(t, err, ErrStorageFailure)

	assert.Equal(t, int64(100), reload(t, base, holder.ID).PointsManual)
	got := reload(t, base, acting.ID)
	assert.False(t, got.HasPhone())
	assert.Zero(t, got.TotalPoints())
	assert.Empty(t, history(t, base, acting.ID))
}

func TestAttachPhoneConcurrentCollisionsKeepOneHolder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	const phone = "89991234567"
	seedAccount(t, store, phone, 100, 50)

	actors := make([]*models.Account, 6)
	for i := range actors {
		actors[i] = seedAccount(t, store, "", 0, 0)
	}

	svc := NewMergeService(testOptions(store))
	var wg sync.WaitGroup
	errs := make(chan error, len(actors))
	for _, a := range actors {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := svc.AttachPhone(ctx, id, phone)
			errs <- err
		}(a.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	accounts, err := store.Repositories().Accounts.List(ctx, 100)
	require.NoError(t, err)
	holders := 0
	var total int64
	for _, a := range accounts {
		if a.PhoneValue() == phone {
			holders++
		}
		total += a.TotalPoints()
	}
	assert.Equal(t, 1, holders)
	assert.Equal(t, int64(150), total)
	assert.Len(t, accounts, 1)
}
