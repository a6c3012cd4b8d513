package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"warpgen/internal/auth"
	"warpgen/internal/notify"
	"warpgen/internal/stats"
)

// StatsAPI provides the public usage counter and the detailed admin view of
// generation history and webhook tracking state.
type StatsAPI struct {
	store   *stats.Store
	tracker *notify.Tracker
	logger  *slog.Logger
}

type PublicStatsResponse struct {
	TotalGenerations int64 `json:"total_generations"`
}

type AdminStatsResponse struct {
	Summary stats.Summary      `json:"summary"`
	Recent  []stats.Generation `json:"recent"`
}

// recentLimit bounds the admin history listing.
const recentLimit = 20

// NewStatsAPI creates a new stats API instance.
func NewStatsAPI(store *stats.Store, tracker *notify.Tracker, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		store:   store,
		tracker: tracker,
		logger:  logger.With("component", "api"),
	}
}

// PublicStats handles GET /api/v1/stats.
// It exposes only the total generation count.
func (api *StatsAPI) PublicStats(c *gin.Context) {
	summary, err := api.store.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, PublicStatsResponse{TotalGenerations: summary.TotalGenerations})
}

// AdminStats handles GET /api/v1/admin/stats.
// It returns the full summary, webhook tracking state included, together
// with the most recent generations.
func (api *StatsAPI) AdminStats(c *gin.Context) {
	api.respondAdminStats(c)
}

// SyncStats handles POST /api/v1/admin/stats/sync.
// It refreshes the webhook tracking state from the receiver before
// answering with the updated admin view.
func (api *StatsAPI) SyncStats(c *gin.Context) {
	if username, ok := auth.GetUsername(c); ok {
		api.logger.Info("webhook sync requested", "username", username)
	}

	api.tracker.Sync(c.Request.Context())
	api.respondAdminStats(c)
}

func (api *StatsAPI) respondAdminStats(c *gin.Context) {
	summary, err := api.store.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load stats"})
		return
	}

	recent, err := api.store.RecentGenerations(recentLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load recent generations"})
		return
	}

	c.JSON(http.StatusOK, AdminStatsResponse{Summary: *summary, Recent: recent})
}
