package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
)

func TestRegisterCreatesAccountOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewAccountService(testOptions(store))

	first, err := svc.Register(ctx, models.RegisterRequest{ExternalID: 501, DisplayName: "Anna"})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Len(t, first.Account.ReferralCode, 8)
	require.NotNil(t, first.Account.ExternalID)
	assert.Equal(t, int64(501), *first.Account.ExternalID)

	second, err := svc.Register(ctx, models.RegisterRequest{ExternalID: 501, Surname: "Smirnova"})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Account.ID, second.Account.ID)

	got := reload(t, store, first.Account.ID)
	assert.Equal(t, "Anna", got.DisplayName)
	assert.Equal(t, "Smirnova", got.Surname)
}

func TestRegisterWithReferrerCreditsBothSidesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewAccountService(testOptions(store))

	referrer, err := svc.Register(ctx, models.RegisterRequest{ExternalID: 1})
	require.NoError(t, err)

	req := models.RegisterRequest{ExternalID: 2, ReferrerCode: referrer.Account.ReferralCode}
	invited, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, invited.Referral)
	assert.Equal(t, int64(50), invited.Account.PointsReferral)
	assert.Equal(t, referrer.Account.ReferralCode, invited.Account.InvitedBy)

	again, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Nil(t, again.Referral)

	assert.Equal(t, int64(100), reload(t, store, referrer.Account.ID).PointsReferral)
	assert.Equal(t, int64(50), reload(t, store, invited.Account.ID).PointsReferral)
	count, err := store.Repositories().Referrals.CountByReferrer(ctx, referrer.Account.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRegisterIgnoresUnknownReferrer(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewAccountService(testOptions(store))

	res, err := svc.Register(ctx, models.RegisterRequest{ExternalID: 3, ReferrerCode: "NOPE0000"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Nil(t, res.Referral)
	assert.NotEmpty(t, res.ReferralIgnored)
	assert.Empty(t, res.Account.InvitedBy)
	assert.Empty(t, history(t, store, res.Account.ID))
}

func TestReadAccessors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewAccountService(testOptions(store))
	ledger := NewLedgerService(testOptions(store))

	reg, err := svc.Register(ctx, models.RegisterRequest{ExternalID: 77})
	require.NoError(t, err)
	id := reg.Account.ID

	_, err = NewMergeService(testOptions(store)).AttachPhone(ctx, id, "89995550000")
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		_, err := ledger.ApplyPoints(ctx, id, models.CategoryManual, 1, "visit")
		require.NoError(t, err)
	}
	_, err = ledger.ApplyPoints(ctx, id, models.CategoryReferral, 7, "bonus")
	require.NoError(t, err)

	byExt, err := svc.GetAccountByExternalIdentity(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, id, byExt.ID)

	byPhone, err := svc.GetAccountByPhone(ctx, "+79995550000")
	require.NoError(t, err)
	assert.Equal(t, id, byPhone.ID)

	_, err = svc.GetAccountByPhone(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = svc.GetAccountByExternalIdentity(ctx, 78)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	balance, err := svc.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Balance{AccountID: id, Manual: 262, Referral: 7, Total: 269}, *balance)

	recent, err := svc.GetHistory(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, recent, DefaultHistoryLimit)
	assert.Equal(t, models.CategoryReferral, recent[0].Category)

	all, err := svc.GetHistory(ctx, id, 1000)
	require.NoError(t, err)
	assert.Len(t, all, 14)

	summary, err := svc.GetBalanceSummary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(269), summary.TotalPoints)
	assert.Equal(t, map[string]int64{"welcome": 250, "manual": 12, "referral": 7}, summary.HistorySummary)
	assert.NotNil(t, summary.LastManualUpdate)
	assert.NotNil(t, summary.LastReferralUpdate)

	_, err = svc.GetHistory(ctx, 999, 10)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
