package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/handlers"
	"github.com/ArowuTest/loyaltybot-backend/internal/metrics"
	sqliterepo "github.com/ArowuTest/loyaltybot-backend/internal/repositories/sqlite"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
	"github.com/ArowuTest/loyaltybot-backend/internal/utils"
	"github.com/ArowuTest/loyaltybot-backend/pkg/relay"
	sqlitedb "github.com/ArowuTest/loyaltybot-backend/pkg/sqlite"
)

const serviceToken = "chat-token"

func setupTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	opts := sqlitedb.DefaultOptions()
	opts.LogLevel = logger.Silent
	db, err := sqlitedb.NewClient(sqlitedb.MemoryDSN(uuid.NewString()), opts)
	require.NoError(t, err)
	store := sqliterepo.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	hash, err := services.HashSecret("s3cret")
	require.NoError(t, err)
	cfg := &config.Config{
		Server: config.ServerConfig{ServiceToken: serviceToken, AllowedHosts: []string{"*"}},
		Points: config.PointsConfig{WelcomeBonus: 250, ReferrerBonus: 100, NewUserBonus: 50},
		Admin: config.AdminConfig{
			OperatorIDs: []int64{1},
			SecretHash:  hash,
			JWTSecret:   "jwt-secret",
			TokenTTL:    time.Hour,
		},
		Bot: config.BotConfig{Username: "loyalty_bot"},
	}

	registry := prometheus.NewRegistry()
	svcOpts := services.Options{Store: store, Points: cfg.Points, Logger: zap.NewNop(), Metrics: metrics.New(registry)}
	auth := services.NewAuthService(cfg.Admin, svcOpts)
	deps := Dependencies{
		Accounts: handlers.NewAccountHandler(
			services.NewAccountService(svcOpts),
			services.NewMergeService(svcOpts),
			services.NewReferralService(svcOpts, cfg.Bot.Username),
		),
		Admin:    handlers.NewAdminHandler(services.NewAdminService(svcOpts, t.TempDir())),
		Auth:     handlers.NewAuthHandler(auth),
		Support:  handlers.NewSupportHandler(services.NewSupportService(svcOpts, relay.NewMockGateway(), -100)),
		Tokens:   auth,
		Gatherer: registry,
	}
	return SetupRouter(cfg, deps, zap.NewNop()), cfg
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}, header map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

var chatHeader = map[string]string{"X-Service-Token": serviceToken}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := call(t, r, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = call(t, r, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatFlow(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, _ := call(t, r, http.MethodPost, "/api/v1/accounts/register", map[string]interface{}{"externalId": 10}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := call(t, r, http.MethodPost, "/api/v1/accounts/register", map[string]interface{}{"externalId": 10, "displayName": "Lena"}, chatHeader)
	require.Equal(t, http.StatusCreated, w.Code)
	account := body["account"].(map[string]interface{})
	id := int64(account["id"].(float64))
	path := "/api/v1/accounts/" + jsonID(id)

	w, body = call(t, r, http.MethodPost, path+"/phone", map[string]string{"phone": "12345"}, chatHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = call(t, r, http.MethodPost, path+"/phone", map[string]string{"phone": "+79991234567"}, chatHeader)
	require.Equal(t, http.StatusOK, w.Code)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, "attached", result["status"])
	assert.Equal(t, float64(250), result["pointsMoved"])

	w, body = call(t, r, http.MethodGet, path+"/balance", nil, chatHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(250), body["total"])

	w, body = call(t, r, http.MethodGet, path+"/history", nil, chatHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["records"], 1)

	w, _ = call(t, r, http.MethodGet, "/api/v1/accounts/phone/89991234567", nil, chatHeader)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, r, http.MethodGet, "/api/v1/accounts/external/10", nil, chatHeader)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = call(t, r, http.MethodGet, path+"/referral", nil, chatHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["link"], "https://t.me/loyalty_bot?start=")

	w, _ = call(t, r, http.MethodGet, "/api/v1/accounts/999/balance", nil, chatHeader)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReferralAwardRequiresServiceToken(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := map[string]interface{}{"referrerCode": "ABCD1234", "accountId": 1}
	w, _ := call(t, r, http.MethodPost, "/api/v1/referrals", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, r, http.MethodPost, "/api/v1/referrals", body, map[string]string{"X-Service-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, r, http.MethodPost, "/api/v1/referrals", body, chatHeader)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRequiresAllowListedOperator(t *testing.T) {
	r, cfg := setupTestRouter(t)

	w, _ := call(t, r, http.MethodGet, "/api/v1/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, r, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{"operatorId": 1, "secret": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	outsider, _, err := utils.GenerateJWT(2, services.OperatorRole, cfg.Admin.JWTSecret, time.Hour, time.Now())
	require.NoError(t, err)
	w, _ = call(t, r, http.MethodGet, "/api/v1/admin/stats", nil, map[string]string{"Authorization": "Bearer " + outsider})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := call(t, r, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{"operatorId": 1, "secret": "s3cret"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	admin := map[string]string{"Authorization": "Bearer " + body["token"].(string)}

	w, body = call(t, r, http.MethodPost, "/api/v1/admin/accounts", map[string]interface{}{"phone": "89990001122", "points": 30}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(body["accountId"].(float64))

	w, _ = call(t, r, http.MethodPost, "/api/v1/admin/accounts/"+jsonID(id)+"/points", map[string]interface{}{"amount": -50}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = call(t, r, http.MethodPost, "/api/v1/admin/accounts/"+jsonID(id)+"/points", map[string]interface{}{"amount": 20}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, body = call(t, r, http.MethodGet, "/api/v1/admin/stats", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), body["totalPoints"])

	w, body = call(t, r, http.MethodGet, "/api/v1/admin/accounts/search?q=8999000", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["accounts"], 1)

	w, body = call(t, r, http.MethodGet, "/api/v1/admin/reconcile", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["mismatches"])
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
