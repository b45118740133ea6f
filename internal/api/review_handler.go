package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// ReviewHandler handles review scheduling HTTP requests
type ReviewHandler struct {
	reviewService review.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService review.ReviewService, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// GetNextDueItem handles GET /reviews/next requests.
// It answers 204 No Content when nothing is due.
func (h *ReviewHandler) GetNextDueItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	point, err := h.reviewService.NextDueItem(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get next review item")
		return
	}

	log.Debug("retrieved next due item", slog.String("item_id", point.ItemID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, pointToResponse(*point))
}

// GetQuota handles GET /reviews/quota requests.
func (h *ReviewHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	quota, err := h.reviewService.RemainingQuota(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review quota")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, quota)
}

// GetStats handles GET /reviews/stats requests.
func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.reviewService.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// StartInitialReviews handles POST /reviews/initial requests.
// Items are started in order until the daily quota runs out; items that
// already have a review point are passed over.
func (h *ReviewHandler) StartInitialReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req StartInitialReviewsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	points, err := h.reviewService.StartInitialReviews(r.Context(), userID, req.ItemIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start initial reviews")
		return
	}

	resp := StartInitialReviewsResponse{Started: make([]ReviewPointResponse, 0, len(points))}
	for _, p := range points {
		resp.Started = append(resp.Started, pointToResponse(p))
	}

	log.Debug("started initial reviews",
		slog.Int("requested", len(req.ItemIDs)),
		slog.Int("started", len(points)))
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// SkipInitialReview handles POST /reviews/initial/skip requests.
func (h *ReviewHandler) SkipInitialReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req SkipInitialReviewRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	point, err := h.reviewService.SkipInitialReview(r.Context(), userID, req.ItemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to skip initial review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, pointToResponse(*point))
}

// ApplyOutcome handles POST /reviews/{itemID}/outcome requests.
func (h *ReviewHandler) ApplyOutcome(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "itemID", log)
	if !ok {
		return
	}

	var req OutcomeRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	outcome := domain.ReviewOutcome(req.Outcome)
	point, err := h.reviewService.ApplyOutcome(r.Context(), userID, itemID, outcome)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review outcome")
		return
	}

	log.Debug("recorded review outcome",
		slog.String("item_id", itemID.String()),
		slog.String("outcome", string(outcome)))
	shared.RespondWithJSON(w, r, http.StatusOK, pointToResponse(*point))
}

// RemoveFromReview handles POST /reviews/{itemID}/remove requests.
// Removing an already removed item succeeds.
func (h *ReviewHandler) RemoveFromReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "itemID", log)
	if !ok {
		return
	}

	point, err := h.reviewService.RemoveFromReview(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove item from review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pointToResponse(*point))
}
