package routers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flexvest/config"
	"flexvest/database"
	"flexvest/models"
	"flexvest/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"rates":{"NGN":1500}}`)
	}))
	t.Cleanup(fx.Close)

	config.AppConfig = &config.Config{
		JWTKey:               "test-secret",
		JWTTTL:               time.Hour,
		SaltRound:            bcrypt.MinCost,
		ExchangeRateAPIURL:   fx.URL,
		ExchangeRateCacheTTL: time.Minute,
		ExchangeRateBase:     "USD",
		ExchangeRateQuote:    "NGN",
		DefaultCurrency:      "USDT",
		RateTiers:            "3:8,6:10,12:12,0:15",
		CronTimezone:         "UTC",
	}

	db, err := database.OpenInMemory()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc, err := services.Build(config.AppConfig, db, log)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	app := NewApp(svc, Options{RateLimitPerSecond: 1000, RateLimitBurst: 1000, WebhookSecret: "hook"})
	return &harness{t: t, app: app, db: db}
}

func (h *harness) do(method, path, token, body string, headers ...string) (int, envelope) {
	h.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(h.t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

// signup registers and logs in, returning the token and user id.
func (h *harness) signup(email, referralCode string) (string, uint) {
	h.t.Helper()
	body := `{"email":"` + email + `","password":"s3cure!pass"`
	if referralCode != "" {
		body += `,"referralCode":"` + referralCode + `"`
	}
	status, _ := h.do(http.MethodPost, "/auth/register", "", body+"}")
	require.Equal(h.t, fiber.StatusCreated, status)

	status, env := h.do(http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"s3cure!pass"}`)
	require.Equal(h.t, fiber.StatusOK, status)
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(h.t, out.Token)
	return out.Token, out.User.ID
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(http.MethodPost, "/auth/register", "", `{"email":"a@x.io","password":"password"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), "password")

	token, id := h.signup("a@x.io", "")
	assert.NotZero(t, id)

	status, _ = h.do(http.MethodPost, "/auth/register", "", `{"email":"A@x.io","password":"s3cure!pass"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = h.do(http.MethodPost, "/auth/login", "", `{"email":"a@x.io","password":"wrong!pass1"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env = h.do(http.MethodGet, "/auth/profile", token, "")
	require.Equal(t, fiber.StatusOK, status)
	var u models.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "a@x.io", u.Email)
	assert.Len(t, u.ReferralCode, 6)

	status, _ = h.do(http.MethodGet, "/auth/profile", "not-a-token", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSavingsEndpoints(t *testing.T) {
	h := newHarness(t)
	token, id := h.signup("saver@x.io", "")

	status, _ := h.do(http.MethodGet, "/savings/summary", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = h.do(http.MethodPost, "/savings/flex/deposit", token, `{"amount":"0"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env := h.do(http.MethodPost, "/savings/flex/deposit", token, `{"amount":"100","transactionHash":"0xdep"}`)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var dep models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &dep))
	assert.Equal(t, models.TransactionStatusCompleted, dep.Status)
	assert.Equal(t, "150000", dep.NairaEquivalent.Decimal.String())

	status, env = h.do(http.MethodPost, "/savings/flex/withdraw", token, `{"amount":"500","walletAddress":"0xabc"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "INSUFFICIENT_BALANCE")

	// No transfer API is configured, so the withdrawal is rejected and the
	// reservation restored.
	status, env = h.do(http.MethodPost, "/savings/flex/withdraw", token, `{"amount":"10","walletAddress":"0xabc"}`)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Contains(t, string(env.Data), "TRANSFER_FAILED")

	status, _ = h.do(http.MethodPost, "/savings/goals", token,
		`{"name":"Trip","targetAmount":"50","deadline":"2001-01-01T00:00:00Z"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	deadline := time.Now().AddDate(0, 2, 0).UTC().Format(time.RFC3339)
	status, env = h.do(http.MethodPost, "/savings/goals", token,
		`{"name":"Trip","targetAmount":"50","deadline":"`+deadline+`"}`)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var goal models.GoalSave
	require.NoError(t, json.Unmarshal(env.Data, &goal))

	status, _ = h.do(http.MethodPost, "/savings/goals/9999/deposit", token, `{"amount":"5"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	path := "/savings/goals/" + jsonNumber(goal.ID) + "/deposit"
	status, _ = h.do(http.MethodPost, path, token, `{"amount":"20"}`)
	assert.Equal(t, fiber.StatusCreated, status)

	status, env = h.do(http.MethodPost, "/savings/fixed", token, `{"amount":"30","duration":30}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "INVALID_DURATION")

	status, _ = h.do(http.MethodPost, "/savings/fixed", token, `{"amount":"30","duration":6}`)
	assert.Equal(t, fiber.StatusCreated, status)

	status, env = h.do(http.MethodGet, "/savings/summary", token, "")
	require.Equal(t, fiber.StatusOK, status)
	var summary struct {
		TotalBalance string `json:"totalBalance"`
		FlexSave     string `json:"flexSave"`
		GoalSave     string `json:"goalSave"`
		FixedSave    string `json:"fixedSave"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "150", summary.TotalBalance)
	assert.Equal(t, "100", summary.FlexSave)
	assert.Equal(t, "20", summary.GoalSave)
	assert.Equal(t, "30", summary.FixedSave)

	status, env = h.do(http.MethodGet, "/savings/history?type=withdrawal", token, "")
	require.Equal(t, fiber.StatusOK, status)
	var page struct {
		Total        int64                `json:"total"`
		Transactions []models.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, models.TransactionStatusFailed, page.Transactions[0].Status)

	status, _ = h.do(http.MethodGet, "/savings/history?limit=500", token, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	require.NoError(t, h.db.Model(&models.User{}).Where("id = ?", id).Update("status", models.StatusSuspended).Error)
	status, _ = h.do(http.MethodGet, "/savings/summary", token, "")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestReferralEndpoints(t *testing.T) {
	h := newHarness(t)
	refToken, refID := h.signup("referrer@x.io", "")

	var referrer models.User
	require.NoError(t, h.db.First(&referrer, refID).Error)

	// Signup with a code applies it.
	h.signup("friend@x.io", strings.ToLower(referrer.ReferralCode))
	token, _ := h.signup("late@x.io", "")

	status, env := h.do(http.MethodPost, "/referral/apply", token, `{"referralCode":"`+referrer.ReferralCode+`"}`)
	require.Equal(t, fiber.StatusOK, status, env.Message)

	status, env = h.do(http.MethodPost, "/referral/apply", token, `{"referralCode":"`+referrer.ReferralCode+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "ALREADY_REFERRED")

	status, env = h.do(http.MethodPost, "/referral/apply", refToken, `{"referralCode":"`+referrer.ReferralCode+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "SELF_REFERRAL")

	status, env = h.do(http.MethodGet, "/referral/stats", refToken, "")
	require.Equal(t, fiber.StatusOK, status)
	var stats struct {
		ReferralCount    int    `json:"referralCount"`
		ReferralEarnings string `json:"referralEarnings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.ReferralCount)
	assert.Equal(t, "20", stats.ReferralEarnings)

	status, env = h.do(http.MethodGet, "/referral/history?page=1&limit=1", refToken, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"total":2`)

	status, env = h.do(http.MethodPost, "/referral/generate-code", refToken, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(env.Data), referrer.ReferralCode)
}

func TestAnalyticsAndNotifications(t *testing.T) {
	h := newHarness(t)
	token, _ := h.signup("charts@x.io", "")

	status, _ := h.do(http.MethodPost, "/savings/flex/deposit", token, `{"amount":"40"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, env := h.do(http.MethodGet, "/analytics/growth?period=1m", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"exchangeRate":"1500"`)

	status, _ = h.do(http.MethodGet, "/analytics/growth?period=5y", token, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	for _, path := range []string{"/analytics/goals-progress", "/analytics/fixed-savings"} {
		status, _ = h.do(http.MethodGet, path, token, "")
		assert.Equal(t, fiber.StatusOK, status, path)
	}

	status, _ = h.do(http.MethodGet, "/analytics/exchange-rates?days=400", token, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = h.do(http.MethodGet, "/notifications?limit=10", token, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = h.do(http.MethodPatch, "/notifications/9999/read", token, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	token, id := h.signup("prefs@x.io", "")
	_, otherID := h.signup("other@x.io", "")
	require.NoError(t, h.db.Model(&models.User{}).Where("id = ?", otherID).Update("phone", "+2348000000001").Error)

	status, _ := h.do(http.MethodPatch, "/user/profile", token, `{}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = h.do(http.MethodPatch, "/user/profile", token, `{"phone":"0801"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = h.do(http.MethodPatch, "/user/profile", token, `{"phone":"+2348000000001"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, env := h.do(http.MethodPatch, "/user/profile", token, `{"emailNotifications":false,"phone":"+2348012345678"}`)
	require.Equal(t, fiber.StatusOK, status, env.Message)

	var u models.User
	require.NoError(t, h.db.First(&u, id).Error)
	assert.False(t, u.EmailNotifications)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "+2348012345678", *u.Phone)
}

func TestWebhookAndOps(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(http.MethodPost, "/webhooks/transfers", "", `{"transactionId":1,"success":true}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = h.do(http.MethodPost, "/webhooks/transfers", "", `{"transactionId":42,"success":true}`, "X-Webhook-Key", "hook")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = h.do(http.MethodPost, "/webhooks/transfers", "", `{"transactionId":42}`, "X-Webhook-Key", "hook")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, fiber.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "flexvest_http_requests_total")
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
