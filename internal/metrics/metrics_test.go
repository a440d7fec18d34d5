package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTransition(t *testing.T) {
	m := New()

	m.ObserveTransition("assign", nil)
	m.ObserveTransition("assign", nil)
	m.ObserveTransition("assign", errors.New("already assigned"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("assign", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("assign", OutcomeFailure)))
}

func TestMatchRetries(t *testing.T) {
	m := New()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.matchRetries))

	m.IncMatchRetries()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchRetries))
}

func TestHandlerAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "gift_exchange_http_request_duration_seconds"))
	assert.True(t, strings.Contains(body, `route="/ping"`))
	assert.True(t, strings.Contains(body, "gift_exchange_match_retries_total 0"))
}
