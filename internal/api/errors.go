package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var cfgErr *domain.ConfigurationError
	var stateErr *domain.StateError
	var validationErrs validator.ValidationErrors

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, review.ErrReviewPointNotFound),
		errors.Is(err, store.ErrReviewPointNotFound):
		return http.StatusNotFound

	// Conflict errors: the request is well formed but the review point's
	// state or today's quota does not allow it.
	case errors.As(err, &stateErr),
		errors.Is(err, domain.ErrAlreadyReviewed),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, review.ErrQuotaExhausted):
		return http.StatusConflict

	case errors.As(err, &cfgErr),
		errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, review.ErrInvalidID),
		errors.Is(err, review.ErrInvalidOutcome),
		errors.Is(err, domain.ErrInvalidReviewOutcome),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	case errors.Is(err, review.ErrNoItemsDue):
		return http.StatusNoContent

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var cfgErr *domain.ConfigurationError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, auth.ErrMissingToken):
		return "User ID not found or invalid"

	case errors.Is(err, review.ErrReviewPointNotFound),
		errors.Is(err, store.ErrReviewPointNotFound):
		return "Review point not found"

	case errors.Is(err, domain.ErrAlreadyReviewed):
		return "Item already has a review point"

	case errors.Is(err, domain.ErrInvalidState):
		return "Item has been removed from review"

	case errors.Is(err, review.ErrQuotaExhausted):
		return "Daily new item quota reached"

	// Configuration reasons are produced by the domain and name no internals.
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Invalid review settings: %s %s", cfgErr.Field, cfgErr.Reason)

	case errors.Is(err, domain.ErrInvalidConfiguration):
		return "Invalid review settings"

	case errors.Is(err, review.ErrInvalidOutcome),
		errors.Is(err, domain.ErrInvalidReviewOutcome):
		return "Invalid review outcome"

	case errors.Is(err, review.ErrInvalidID):
		return "Invalid identifier"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Validation error"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the sanitized error response for err and logs the
// redacted details. defaultMsg replaces the generic message for server errors.
// ErrNoItemsDue is answered with an empty 204.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnprocessableEntity {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'OutcomeRequest.Outcome' Error:Field validation for 'Outcome' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gt", "gte":
		return "too small"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
