package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/server/email"
	"github.com/remarkly/backend/internal/server/generation"
	"github.com/remarkly/backend/internal/server/llm"
	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/server/payment"
	"github.com/remarkly/backend/internal/server/users"
)

type memoryPinger struct{}

func (memoryPinger) Ping(ctx context.Context) error { return nil }

func newTestServer(t *testing.T) (*Server, users.Repository) {
	t.Helper()

	cfg := &config.Config{
		SecretKey:             "test-secret",
		TokenValidityDuration: time.Hour,
		SignupGrant:           50,
		StoreBackend:          "memory",
		OrderAmount:           "0.50",
		OrderGrant:            50,
		OrderTTL:              24 * time.Hour,
		SettlementDelay:       time.Hour,
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	userRepo := users.NewMemoryRepository()
	userSvc := users.NewService(userRepo, cfg)

	gateway := llm.NewClient(cfg, logger)
	genSvc := generation.NewService(userRepo, gateway, logger)

	orderSvc := orders.NewService(orders.NewMemoryRepository(), cfg)
	provider := payment.NewSimulatedProvider(cfg.SettlementDelay, logger)
	t.Cleanup(provider.Shutdown)
	paySvc := payment.NewService(orderSvc, userRepo, provider, email.NewSender(cfg, logger), logger)
	provider.SetSettleFunc(paySvc.SettleSimulated)

	return NewServer(cfg, userSvc, genSvc, paySvc, gateway.Vendors(), memoryPinger{}, logger), userRepo
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRegister(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := decodeBody(t, rec)
	user := payload["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, float64(50), user["credits"])
}

func TestRegister_DuplicateUsername(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/register",
		map[string]string{"username": "alice", "password": "pw"}).Code)

	rec := postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "username exists")
}

func TestRegister_MissingFields(t *testing.T) {
	server, _ := newTestServer(t)

	rec := postJSON(t, server.Router(), "/api/register", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})

	rec := postJSON(t, router, "/api/login", map[string]string{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})

	rec := postJSON(t, router, "/api/login", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUser(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})

	req := httptest.NewRequest(http.MethodGet, "/api/user/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, float64(50), user["credits"])
}

func TestGetUser_Unknown(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/ghost", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateComment(t *testing.T) {
	server, userRepo := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})

	rec := postJSON(t, router, "/api/generate-comment", map[string]any{
		"username": "alice",
		"studentProfiles": []map[string]string{
			{"name": "Ben", "role": "class monitor", "incidents": "won the spelling bee", "tags": "diligent"},
		},
		"commentStyle": "warm",
		"model":        "mock",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var comments []llm.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "Ben", comments[0].StudentName)

	user, err := userRepo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(49), user.Credits)
}

func TestGenerateComment_UnknownUser(t *testing.T) {
	server, _ := newTestServer(t)

	rec := postJSON(t, server.Router(), "/api/generate-comment", map[string]any{
		"username":        "ghost",
		"studentProfiles": []map[string]string{{"name": "Ben"}},
		"model":           "mock",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateComment_InsufficientCredits(t *testing.T) {
	server, userRepo := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})
	_, err := userRepo.AdjustCredits(context.Background(), "alice", -48)
	require.NoError(t, err)

	profiles := make([]map[string]string, 3)
	for i := range profiles {
		profiles[i] = map[string]string{"name": fmt.Sprintf("Student %d", i)}
	}

	rec := postJSON(t, router, "/api/generate-comment", map[string]any{
		"username":        "alice",
		"studentProfiles": profiles,
		"model":           "mock",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, float64(3), payload["required"])
	assert.Equal(t, float64(2), payload["available"])
}

func TestGenerateAlternatives(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})

	rec := postJSON(t, router, "/api/generate-alternatives", map[string]any{
		"username":     "alice",
		"originalText": "You always bring energy to the class.",
		"sourceTag":    "enthusiasm",
		"commentStyle": "warm",
		"model":        "mock",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var alternatives []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alternatives))
	assert.NotEmpty(t, alternatives)
	assert.LessOrEqual(t, len(alternatives), 5)
}

func TestCreateOrderAndNotify(t *testing.T) {
	server, userRepo := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/api/register", map[string]string{"username": "alice", "password": "pw"})

	rec := postJSON(t, router, "/api/create-alipay-order", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	orderID := payload["orderId"].(string)
	assert.NotEmpty(t, payload["qrCodeUrl"])
	require.NotEmpty(t, orderID)

	form := url.Values{}
	form.Set("trade_status", payment.TradeSuccess)
	form.Set("out_trade_no", orderID)
	form.Set("passback_params", url.QueryEscape(fmt.Sprintf(`{"username":"alice","orderId":"%s"}`, orderID)))

	notify := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/alipay-payment-notify", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := notify()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "success", strings.TrimSpace(first.Body.String()))

	// redelivery is acknowledged but credits only once
	require.Equal(t, http.StatusOK, notify().Code)

	user, err := userRepo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.Credits)
}

func TestNotify_UnknownOrder(t *testing.T) {
	server, _ := newTestServer(t)

	form := url.Values{}
	form.Set("trade_status", payment.TradeSuccess)
	form.Set("out_trade_no", "ORDER_missing")
	form.Set("passback_params", url.QueryEscape(`{"username":"alice","orderId":"ORDER_missing"}`))

	req := httptest.NewRequest(http.MethodPost, "/api/alipay-payment-notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "failure", strings.TrimSpace(rec.Body.String()))
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health-check", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "simulated", payload["paymentMode"])
	assert.Contains(t, payload["vendors"], "mock")
}
