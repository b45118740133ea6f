// Package api handles incoming HTTP requests, request validation and
// response formatting for the review scheduler. Handlers translate HTTP
// concerns into calls on review.ReviewService and map its errors onto status
// codes without leaking internal details.
package api
