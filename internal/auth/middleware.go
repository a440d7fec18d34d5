package auth

import (
	"net/http"
	"strings"

	apperrors "gift-exchange-backend/internal/errors"
	"gift-exchange-backend/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey     = "user_id"
	userNameKey   = "user_name"
	authClaimsKey = "auth_claims"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	service *AuthService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(service *AuthService) *AuthMiddleware {
	return &AuthMiddleware{service: service}
}

// RequireAuth validates JWT tokens and sets user context
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthenticated(c, "Authorization header with a Bearer token is required")
			return
		}

		claims, err := m.service.ValidateJWT(tokenString)
		if err != nil {
			logger.WithContext(c.Request.Context()).WithError(err).Debug("rejected token")
			abortUnauthenticated(c, "Invalid token")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth validates JWT tokens if present but doesn't require them
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		// Invalid token, continue without setting user context
		if claims, err := m.service.ValidateJWT(tokenString); err == nil {
			setIdentity(c, claims)
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

func setIdentity(c *gin.Context, claims *AuthClaims) {
	c.Set(userIDKey, claims.UserID())
	c.Set(userNameKey, claims.Name)
	c.Set(authClaimsKey, claims)
	c.Request = c.Request.WithContext(logger.ContextWithUser(c.Request.Context(), claims.UserID()))
}

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"kind":  apperrors.KindUnauthenticated,
	})
}

// GetUserID is a helper function to extract user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetUserName is a helper function to extract the display name from context
func GetUserName(c *gin.Context) (string, bool) {
	name, exists := c.Get(userNameKey)
	if !exists {
		return "", false
	}

	nameStr, ok := name.(string)
	return nameStr, ok
}

// GetAuthClaims is a helper function to extract full auth claims from context
func GetAuthClaims(c *gin.Context) (*AuthClaims, bool) {
	claims, exists := c.Get(authClaimsKey)
	if !exists {
		return nil, false
	}

	authClaims, ok := claims.(*AuthClaims)
	return authClaims, ok
}
