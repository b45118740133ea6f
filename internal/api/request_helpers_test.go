package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithParam(name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetPathUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got, err := getPathUUID(requestWithParam("itemID", id.String()), "itemID")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, value := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		_, err := getPathUUID(requestWithParam("itemID", value), "itemID")
		assert.ErrorIs(t, err, review.ErrInvalidID, "value %q", value)
	}
}

func TestHandleUserIDAndPathUUID(t *testing.T) {
	t.Parallel()

	userID, itemID := uuid.New(), uuid.New()

	t.Run("missing user", func(t *testing.T) {
		w := httptest.NewRecorder()
		_, _, ok := handleUserIDAndPathUUID(w, requestWithParam("itemID", itemID.String()), "itemID", nil)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad path id", func(t *testing.T) {
		r := requestWithParam("itemID", "nope")
		r = r.WithContext(shared.WithUserID(r.Context(), userID))
		w := httptest.NewRecorder()
		_, _, ok := handleUserIDAndPathUUID(w, r, "itemID", nil)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("both present", func(t *testing.T) {
		r := requestWithParam("itemID", itemID.String())
		r = r.WithContext(shared.WithUserID(r.Context(), userID))
		gotUser, gotItem, ok := handleUserIDAndPathUUID(httptest.NewRecorder(), r, "itemID", nil)
		require.True(t, ok)
		assert.Equal(t, userID, gotUser)
		assert.Equal(t, itemID, gotItem)
	})
}
