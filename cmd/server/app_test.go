package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/clock"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/migrate"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "debug", ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, URL: sqlite.MemoryDSN},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-that-is-long-enough-for-testing",
			TokenLifetimeMinutes: 60,
		},
		Review: config.ReviewConfig{
			Intervals:         "1,3,7,14",
			DailyLimit:        5,
			Timezone:          "UTC",
			SadReset:          "to_zero",
			AgainRetryMinutes: 10,
		},
		Reminder: config.ReminderConfig{
			Enabled:   true,
			Schedule:  "0 * * * *",
			Workers:   1,
			QueueSize: 10,
		},
	}
}

// newTestApp opens a migrated in-memory database and wires a full application
// on a fixed clock.
func newTestApp(t *testing.T) (*application, *clock.Fixed, *logger.TestLogBuffer) {
	t.Helper()
	ctx := context.Background()
	l, buf := logger.GetTestLogger(t)
	cfg := testConfig()

	db, err := openDatabase(ctx, cfg.Database, l)
	require.NoError(t, err)
	require.NoError(t, runMigrations(ctx, db, migrate.CommandUp, l))

	clk := clock.NewFixed(startTime)
	app, err := newApplication(cfg, l, db, clk)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app, clk, buf
}

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func (c *apiClient) do(method, path string, body interface{}) *http.Response {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestApplicationReviewFlow(t *testing.T) {
	app, clk, _ := newTestApp(t)
	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(server.Close)

	userID := uuid.New()
	first, second := uuid.New(), uuid.New()

	anonymous := &apiClient{t: t, server: server}
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodGet, "/api/reviews/next", nil).StatusCode)
	assert.Equal(t, http.StatusOK, anonymous.do(http.MethodGet, "/health", nil).StatusCode)

	token, err := app.jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	client := &apiClient{t: t, server: server, token: token}

	resp := client.do(http.MethodPost, "/api/reviews/initial", map[string]interface{}{
		"item_ids": []string{first.String(), second.String()},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Starting the same item again is a conflict.
	resp = client.do(http.MethodPost, "/api/reviews/initial/skip", map[string]string{"item_id": first.String()})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Nothing is due until the first interval has passed.
	assert.Equal(t, http.StatusNoContent, client.do(http.MethodGet, "/api/reviews/next", nil).StatusCode)

	clk.Advance(24 * time.Hour)
	token, err = app.jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	client.token = token

	resp = client.do(http.MethodGet, "/api/reviews/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var next struct {
		ItemID string `json:"item_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&next))

	resp = client.do(http.MethodPost, "/api/reviews/"+next.ItemID+"/outcome", map[string]string{"outcome": "happy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = client.do(http.MethodPost, "/api/reviews/"+second.String()+"/remove", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = client.do(http.MethodGet, "/api/reviews/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats review.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Learnt)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 5, stats.RemainingQuota)

	resp = client.do(http.MethodPut, "/api/settings/review", map[string]interface{}{
		"intervals":           "2,4",
		"daily_limit":         1,
		"timezone":            "Asia/Tokyo",
		"sad_reset":           "decrement_one",
		"again_retry_minutes": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = client.do(http.MethodGet, "/api/reviews/quota", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quota review.Quota
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&quota))
	assert.Equal(t, 1, quota.DailyLimit)
}

func TestApplicationDueReminders(t *testing.T) {
	app, clk, buf := newTestApp(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := app.reviewService.StartInitialReview(ctx, userID, uuid.New())
	require.NoError(t, err)
	clk.Advance(48 * time.Hour)

	app.start()
	app.reminders.RunNow()

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), `"event_type":"review.due_digest"`)
	}, 5*time.Second, 20*time.Millisecond)
	logger.AssertLogContains(t, buf, userID.String())
}

func TestRunMigrationsRejectsUnknownCommand(t *testing.T) {
	l, _ := logger.GetTestLogger(t)
	db, err := openDatabase(context.Background(), testConfig().Database, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Error(t, runMigrations(context.Background(), db, "sideways", l))
	assert.NoError(t, runMigrations(context.Background(), db, migrate.CommandVersion, l))
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	l, _ := logger.GetTestLogger(t)
	_, err := openDatabase(context.Background(), config.DatabaseConfig{Driver: "mysql", URL: "x"}, l)
	assert.Error(t, err)
}

func TestIssueToken(t *testing.T) {
	cfg := testConfig().Auth
	userID := uuid.New()

	var out bytes.Buffer
	require.NoError(t, issueToken(context.Background(), cfg, userID.String(), &out))

	jwtService, err := auth.NewJWTService(cfg, clock.System())
	require.NoError(t, err)
	claims, err := jwtService.ValidateToken(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	assert.Error(t, issueToken(context.Background(), cfg, "not-a-uuid", &out))
	assert.Error(t, issueToken(context.Background(), cfg, uuid.Nil.String(), &out))
}
