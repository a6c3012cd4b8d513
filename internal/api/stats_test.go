package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warpgen/internal/notify"
	"warpgen/internal/stats"
)

func setupStatsRouter(t *testing.T, webhook *notify.Webhook) (*stats.Store, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := stats.New(":memory:")
	require.NoError(t, err)

	tracker := notify.NewTracker(webhook, store, testLogger())
	statsAPI := NewStatsAPI(store, tracker, testLogger())

	router := gin.New()
	router.GET("/api/v1/stats", statsAPI.PublicStats)
	router.GET("/api/v1/admin/stats", statsAPI.AdminStats)
	router.POST("/api/v1/admin/stats/sync", statsAPI.SyncStats)
	return store, router
}

func seedGeneration(t *testing.T, store *stats.Store, mode, status string, code *int) {
	t.Helper()

	require.NoError(t, store.RecordGeneration(&stats.Generation{
		Mode:          mode,
		Endpoint:      "162.159.192.1:2408",
		Port:          2408,
		ClientIP:      "203.0.113.7",
		WebhookStatus: status,
		WebhookCode:   code,
	}))
}

func TestStatsAPI_PublicStats(t *testing.T) {
	disabled := notify.NewWebhook("", "", "", testLogger())

	t.Run("should expose only the total generation count", func(t *testing.T) {
		store, router := setupStatsRouter(t, disabled)
		seedGeneration(t, store, "auto", notify.StatusSuccess, intp(200))
		seedGeneration(t, store, "custom", notify.StatusSkipped, nil)

		req := httptest.NewRequest("GET", "/api/v1/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(2), body["total_generations"])
		assert.Len(t, body, 1)
	})

	t.Run("should report zero on a fresh store", func(t *testing.T) {
		_, router := setupStatsRouter(t, disabled)

		req := httptest.NewRequest("GET", "/api/v1/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp PublicStatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(0), resp.TotalGenerations)
	})
}

func TestStatsAPI_AdminStats(t *testing.T) {
	disabled := notify.NewWebhook("", "", "", testLogger())

	t.Run("should return the full summary and recent history", func(t *testing.T) {
		store, router := setupStatsRouter(t, disabled)
		seedGeneration(t, store, "auto", notify.StatusSuccess, intp(200))
		seedGeneration(t, store, "list", notify.StatusFailed, intp(503))
		seedGeneration(t, store, "custom", notify.StatusSkipped, nil)

		req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp AdminStatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.Equal(t, int64(3), resp.Summary.TotalGenerations)
		assert.Equal(t, int64(1), resp.Summary.WebhookSuccess)
		assert.Equal(t, int64(1), resp.Summary.WebhookFailed)
		assert.Equal(t, int64(1), resp.Summary.WebhookSkipped)

		require.Len(t, resp.Recent, 3)
		assert.Equal(t, "custom", resp.Recent[0].Mode) // newest first
	})
}

func TestStatsAPI_SyncStats(t *testing.T) {
	t.Run("should report a disabled webhook after syncing", func(t *testing.T) {
		disabled := notify.NewWebhook("", "", "", testLogger())
		_, router := setupStatsRouter(t, disabled)

		req := httptest.NewRequest("POST", "/api/v1/admin/stats/sync", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp AdminStatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, notify.TrackingDisabled, resp.Summary.TrackingState)
		assert.Equal(t, "webhook URL is empty", resp.Summary.SyncError)
	})

	t.Run("should fold receiver counts into the summary", func(t *testing.T) {
		reader := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			io.WriteString(rw, `{"data": [{"created_at": "2026-01-10 09:00:00"}, {"created_at": "2026-01-11 09:00:00"}]}`)
		}))
		t.Cleanup(reader.Close)

		webhook := notify.NewWebhook("https://example.com/hook", reader.URL, "2099-01-01", testLogger())
		_, router := setupStatsRouter(t, webhook)

		req := httptest.NewRequest("POST", "/api/v1/admin/stats/sync", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp AdminStatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, notify.TrackingActive, resp.Summary.TrackingState)
		assert.Equal(t, 2, resp.Summary.ReceivedTotal)
		assert.Equal(t, 2, resp.Summary.ReceivedUpToCutoff)
		require.NotNil(t, resp.Summary.LastSyncAt)
	})
}
