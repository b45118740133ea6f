package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// SettingsHandler serves the user's review settings.
type SettingsHandler struct {
	reviewService review.ReviewService
	logger        *slog.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(reviewService review.ReviewService, logger *slog.Logger) *SettingsHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for SettingsHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SettingsHandler")
	}

	return &SettingsHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "settings_handler")),
	}
}

// GetReviewSettings handles GET /settings/review requests.
func (h *SettingsHandler) GetReviewSettings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	settings, err := h.reviewService.GetSettings(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review settings")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{settings.Config()})
}

// UpdateReviewSettings handles PUT /settings/review requests.
func (h *SettingsHandler) UpdateReviewSettings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	settings, err := h.reviewService.UpdateSettings(r.Context(), userID, req.ToConfig())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update review settings")
		return
	}

	log.Info("review settings updated", slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{settings.Config()})
}
