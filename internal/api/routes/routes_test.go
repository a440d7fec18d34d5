package routes

import (
	"net/http"
	"testing"

	"gift-exchange-backend/internal/config"
	"gift-exchange-backend/internal/repository/memory"
	"gift-exchange-backend/internal/service"
	"gift-exchange-backend/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *testutils.APIClient {
	cfg := &config.Config{
		JWTSecret:        testutils.TestJWTSecret,
		AllowedOrigins:   []string{"*"},
		MaxGroupMembers:  50,
		MatchMaxAttempts: 10,
	}
	router, err := SetupRoutes(memory.NewStore(), cfg)
	require.NoError(t, err)
	return testutils.NewAPIClient(t, router)
}

func TestWinterExchangeOverHTTP(t *testing.T) {
	c := newClient(t)

	var group service.GroupResponse
	w := c.DoAs(t, "A", http.MethodPost, "/api/v1/groups", map[string]string{"name": "Winter24"})
	testutils.AssertJSONResponse(t, w, http.StatusCreated, &group)
	base := "/api/v1/groups/" + group.ID.String()

	for _, user := range []string{"B", "C", "D"} {
		testutils.AssertStatus(t, c.DoAs(t, user, http.MethodPost, base+"/members", nil), http.StatusCreated)
	}

	testutils.AssertErrorResponse(t, c.DoAs(t, "B", http.MethodPost, base+"/assignment", nil), http.StatusForbidden, "forbidden")
	testutils.AssertStatus(t, c.DoAs(t, "A", http.MethodPost, base+"/assignment", nil), http.StatusOK)
	testutils.AssertErrorResponse(t, c.DoAs(t, "A", http.MethodPost, base+"/assignment", nil), http.StatusConflict, "conflict")
	testutils.AssertErrorResponse(t, c.DoAs(t, "A", http.MethodDelete, base, nil), http.StatusPreconditionFailed, "precondition_failed")
	testutils.AssertStatus(t, c.DoAs(t, "A", http.MethodPost, base+"/reveal", nil), http.StatusOK)

	var detail service.GroupDetailResponse
	testutils.AssertJSONResponse(t, c.Do(http.MethodGet, base, nil), http.StatusOK, &detail)
	assert.True(t, detail.IsRevealed)
	require.Len(t, detail.Members, 4)
	for _, m := range detail.Members {
		require.NotNil(t, m.RecipientID)
		assert.NotEqual(t, m.UserID, *m.RecipientID)
	}

	testutils.AssertStatus(t, c.DoAs(t, "A", http.MethodDelete, base, nil), http.StatusNoContent)
	testutils.AssertErrorResponse(t, c.DoAs(t, "A", http.MethodGet, base, nil), http.StatusNotFound, "not_found")

	w = c.Do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gift_exchange_transitions_total{outcome="success",transition="assign"} 1`)
	assert.Contains(t, w.Body.String(), `gift_exchange_transitions_total{outcome="failure",transition="assign"} 2`)
}

func TestJoinWithSecretOverHTTP(t *testing.T) {
	c := newClient(t)

	var group service.GroupResponse
	w := c.DoAs(t, "A", http.MethodPost, "/api/v1/groups", map[string]string{"name": "Club", "secret": "xyz"})
	testutils.AssertJSONResponse(t, w, http.StatusCreated, &group)
	path := "/api/v1/groups/" + group.ID.String() + "/members"

	testutils.AssertErrorResponse(t, c.DoAs(t, "B", http.MethodPost, path, map[string]string{"secret": "abc"}), http.StatusForbidden, "forbidden")
	testutils.AssertStatus(t, c.DoAs(t, "B", http.MethodPost, path, map[string]string{"secret": "xyz"}), http.StatusCreated)
	testutils.AssertErrorResponse(t, c.DoAs(t, "B", http.MethodPost, path, map[string]string{"secret": "xyz"}), http.StatusConflict, "conflict")
}

func TestOperationalRoutes(t *testing.T) {
	c := newClient(t)

	testutils.AssertStatus(t, c.Do(http.MethodGet, "/health", nil), http.StatusOK)
	testutils.AssertErrorResponse(t, c.Do(http.MethodPost, "/api/v1/groups", map[string]string{"name": "x"}), http.StatusUnauthorized, "unauthenticated")
	testutils.AssertStatus(t, c.DoAs(t, "C", http.MethodGet, "/api/v1/groups?mode=joined", nil), http.StatusOK)

	w := c.Do(http.MethodGet, "/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
