package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware provides HTTP middleware for JWT authentication.
// It validates bearer tokens on protected routes and exposes the
// authenticated principal to handlers through the Gin context.
type AuthMiddleware struct {
	authManager *AuthManager // Authentication manager for token validation
}

// ErrorResponse represents an authentication error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewAuthMiddleware creates a new authentication middleware instance.
// Returns a pointer to the newly created AuthMiddleware.
func NewAuthMiddleware(authManager *AuthManager) *AuthMiddleware {
	return &AuthMiddleware{
		authManager: authManager,
	}
}

// RequireAuth is a middleware function that requires authentication.
// It extracts the Authorization header, validates the JWT token, and sets
// the principal in the context. Failures abort with 401 Unauthorized.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Authorization header is required",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Authorization header must start with 'Bearer '",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "JWT token is required",
			})
			c.Abort()
			return
		}

		claims, err := am.authManager.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("claims", claims)

		c.Next()
	}
}

// GetUsername extracts the authenticated principal from the Gin context.
// This should be called after RequireAuth middleware has run.
// Returns the username and a boolean indicating if it was found.
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get("username")
	if !exists {
		return "", false
	}

	name, ok := username.(string)
	return name, ok
}

// GetClaims extracts the JWT claims from the Gin context.
// This should be called after RequireAuth middleware has run.
// Returns the claims and a boolean indicating if they were found.
func GetClaims(c *gin.Context) (*Claims, bool) {
	claims, exists := c.Get("claims")
	if !exists {
		return nil, false
	}

	claimsObj, ok := claims.(*Claims)
	return claimsObj, ok
}
