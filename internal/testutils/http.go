package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"gift-exchange-backend/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// APIClient drives a router in-process and signs requests as named users
type APIClient struct {
	Router *gin.Engine
	auth   *auth.AuthService
	tokens map[string]string
}

// NewAPIClient returns a client minting tokens with TestJWTSecret
func NewAPIClient(t *testing.T, router *gin.Engine) *APIClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service, err := auth.NewAuthService(&auth.AuthConfig{JWTSecret: TestJWTSecret})
	require.NoError(t, err)

	return &APIClient{
		Router: router,
		auth:   service,
		tokens: make(map[string]string),
	}
}

// TokenFor returns a bearer token for userID, minting it on first use
func (c *APIClient) TokenFor(t *testing.T, userID string) string {
	t.Helper()
	if token, ok := c.tokens[userID]; ok {
		return token
	}
	token, err := c.auth.GenerateJWT(userID, "User "+userID)
	require.NoError(t, err)
	c.tokens[userID] = token
	return token
}

// Do sends an unauthenticated request
func (c *APIClient) Do(method, url string, body interface{}) *httptest.ResponseRecorder {
	return c.send(method, url, body, nil)
}

// DoAs sends a request carrying userID's bearer token
func (c *APIClient) DoAs(t *testing.T, userID, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return c.send(method, url, body, map[string]string{
		"Authorization": "Bearer " + c.TokenFor(t, userID),
	})
}

func (c *APIClient) send(method, url string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req := httptest.NewRequest(method, url, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	c.Router.ServeHTTP(recorder, req)
	return recorder
}

// AssertJSONResponse asserts the response status and unmarshals JSON response
func AssertJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	require.Equal(t, expectedStatus, recorder.Code, recorder.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))

	if target != nil {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), target))
	}
}

// AssertErrorResponse asserts the status and error kind of a failed request
func AssertErrorResponse(t *testing.T, recorder *httptest.ResponseRecorder, expectedStatus int, expectedKind string) {
	t.Helper()
	assert.Equal(t, expectedStatus, recorder.Code)

	var errorResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &errorResponse))
	assert.NotEmpty(t, errorResponse["error"])
	if expectedKind != "" {
		assert.Equal(t, expectedKind, errorResponse["kind"])
	}
}

// AssertStatus asserts a status code, printing the body on mismatch
func AssertStatus(t *testing.T, recorder *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	assert.Equal(t, expectedStatus, recorder.Code, recorder.Body.String())
}
