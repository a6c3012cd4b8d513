// Package auth provides authentication for the administrative API surface.
// It implements JWT-based session tokens and bcrypt password handling for the
// single environment-configured admin principal.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthManager handles token signing and password hashing. It provides the
// authentication primitives behind the admin endpoints.
type AuthManager struct {
	jwtSecret   string        // Secret key for JWT token signing and verification
	tokenExpiry time.Duration // Duration for which tokens remain valid
}

// Claims represents the JWT claims issued for an authenticated admin.
type Claims struct {
	Username string `json:"username"` // Authenticated principal
	jwt.RegisteredClaims
}

// NewAuthManager creates a new authentication manager with default settings.
// The default token expiry is 24 hours.
// Returns a pointer to the newly created AuthManager.
func NewAuthManager(jwtSecret string) *AuthManager {
	return &AuthManager{
		jwtSecret:   jwtSecret,
		tokenExpiry: 24 * time.Hour,
	}
}

// NewAuthManagerWithConfig creates a new authentication manager with a custom
// token expiry for different security requirements.
// Returns a pointer to the newly created AuthManager.
func NewAuthManagerWithConfig(jwtSecret string, tokenExpiry time.Duration) *AuthManager {
	return &AuthManager{
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

// TokenExpiry returns the configured token lifetime.
func (am *AuthManager) TokenExpiry() time.Duration {
	return am.tokenExpiry
}

// HashPassword creates a bcrypt hash of the provided password.
// The salt is generated automatically and included in the hash.
// Returns the hashed password or an error if hashing fails.
func (am *AuthManager) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword compares a plain text password with a bcrypt hash.
// Returns true if the password matches the hash, false otherwise.
func (am *AuthManager) VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken creates a new JWT token for the named principal.
// The token is signed with the manager's secret and expires after the
// configured duration.
// Returns the signed JWT token string or an error if signing fails.
func (am *AuthManager) GenerateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(am.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "warpgen",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(am.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
// It verifies the token signature, expiration, and other standard claims.
// Returns the parsed claims if the token is valid, or an error otherwise.
func (am *AuthManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(am.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// RefreshToken generates a new token based on a valid existing token,
// extending the session without re-authentication. The old token should be
// discarded after a successful refresh.
// Returns a new JWT token string or an error if the original is invalid.
func (am *AuthManager) RefreshToken(tokenString string) (string, error) {
	claims, err := am.ValidateToken(tokenString)
	if err != nil {
		return "", fmt.Errorf("cannot refresh invalid token: %w", err)
	}

	return am.GenerateToken(claims.Username)
}

// GenerateSecureSecret creates a cryptographically secure random secret for
// JWT signing: 32 bytes of random data encoded as base64.
// Returns the encoded secret string or an error if random generation fails.
func GenerateSecureSecret() (string, error) {
	bytes := make([]byte, 32) // 256 bits
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate secure secret: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
