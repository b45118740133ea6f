package api

import "github.com/go-chi/chi/v5"

// RegisterReviewRoutes mounts the review and settings endpoints on r.
// Callers are expected to have applied the authentication middleware.
func RegisterReviewRoutes(r chi.Router, reviews *ReviewHandler, settings *SettingsHandler) {
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/next", reviews.GetNextDueItem)
		r.Get("/quota", reviews.GetQuota)
		r.Get("/stats", reviews.GetStats)
		r.Post("/initial", reviews.StartInitialReviews)
		r.Post("/initial/skip", reviews.SkipInitialReview)
		r.Post("/{itemID}/outcome", reviews.ApplyOutcome)
		r.Post("/{itemID}/remove", reviews.RemoveFromReview)
	})

	r.Get("/settings/review", settings.GetReviewSettings)
	r.Put("/settings/review", settings.UpdateReviewSettings)
}
