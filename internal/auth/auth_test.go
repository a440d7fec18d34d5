package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-key"

func newTestService(t *testing.T, issuer string) *AuthService {
	t.Helper()
	service, err := NewAuthService(&AuthConfig{JWTSecret: testSecret, Issuer: issuer})
	require.NoError(t, err)
	return service
}

func TestAuthConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config := &AuthConfig{JWTSecret: testSecret}
		assert.NoError(t, config.ValidateConfig())
		assert.Equal(t, DefaultTokenTTL, config.tokenTTL())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		config := &AuthConfig{}
		err := config.ValidateConfig()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWT secret is required")
	})

	t.Run("negative ttl", func(t *testing.T) {
		config := &AuthConfig{JWTSecret: testSecret, TokenTTL: -time.Second}
		assert.Error(t, config.ValidateConfig())
	})

	t.Run("service rejects invalid config", func(t *testing.T) {
		_, err := NewAuthService(&AuthConfig{})
		assert.Error(t, err)
	})
}

func TestJWTRoundTrip(t *testing.T) {
	service := newTestService(t, "identity-provider")

	token, err := service.GenerateJWT("user-1", "Alice")
	require.NoError(t, err)

	claims, err := service.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "identity-provider", claims.Issuer)
}

func TestValidateJWTRejects(t *testing.T) {
	service := newTestService(t, "identity-provider")

	t.Run("garbage", func(t *testing.T) {
		_, err := service.ValidateJWT("not-a-token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewAuthService(&AuthConfig{JWTSecret: "other", Issuer: "identity-provider"})
		require.NoError(t, err)
		token, err := other.GenerateJWT("user-1", "Alice")
		require.NoError(t, err)

		_, err = service.ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newTestService(t, "somebody-else")
		token, err := other.GenerateJWT("user-1", "Alice")
		require.NoError(t, err)

		_, err = service.ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := newTestService(t, "identity-provider")
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := old.GenerateJWT("user-1", "Alice")
		require.NoError(t, err)

		_, err = service.ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := &AuthClaims{
			Name: "Nobody",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    "identity-provider",
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateJWT(token)
		assert.ErrorContains(t, err, "subject")
	})

	t.Run("generate requires user id", func(t *testing.T) {
		_, err := service.GenerateJWT("", "Alice")
		assert.Error(t, err)
	})
}

func setupRouter(service *AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	middleware := NewAuthMiddleware(service)

	identity := func(c *gin.Context) {
		id, ok := GetUserID(c)
		name, _ := GetUserName(c)
		_, hasClaims := GetAuthClaims(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "name": name, "authenticated": ok && hasClaims})
	}
	router.GET("/required", middleware.RequireAuth(), identity)
	router.GET("/optional", middleware.OptionalAuth(), identity)
	router.POST("/api/auth/validate", NewAuthHandler(service).ValidateToken)
	return router
}

func doRequest(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	service := newTestService(t, "")
	router := setupRouter(service)
	token, err := service.GenerateJWT("user-1", "Alice")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/required", token)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "user-1", body["id"])
		assert.Equal(t, "Alice", body["name"])
		assert.Equal(t, true, body["authenticated"])
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/required", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"unauthenticated"`)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/required", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/required", "bogus")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	service := newTestService(t, "")
	router := setupRouter(service)

	w := doRequest(router, http.MethodGet, "/optional", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	w = doRequest(router, http.MethodGet, "/optional", "bogus")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	token, err := service.GenerateJWT("user-2", "Bob")
	require.NoError(t, err)
	w = doRequest(router, http.MethodGet, "/optional", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"user-2"`)
}

func TestValidateTokenHandler(t *testing.T) {
	service := newTestService(t, "")
	router := setupRouter(service)
	token, err := service.GenerateJWT("user-1", "Alice")
	require.NoError(t, err)

	w := doRequest(router, http.MethodPost, "/api/auth/validate", token)
	require.Equal(t, http.StatusOK, w.Code)

	var response AuthValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Valid)
	require.NotNil(t, response.Claims)
	assert.Equal(t, "user-1", response.Claims.Subject)

	w = doRequest(router, http.MethodPost, "/api/auth/validate", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
