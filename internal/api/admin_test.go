package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warpgen/internal/auth"
)

func setupAdminRouter(t *testing.T, password, passwordHash string) (*gin.Engine, *auth.AuthManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	admin, err := auth.NewAdmin("admin", password, passwordHash)
	require.NoError(t, err)
	manager := auth.NewAuthManager("test-secret")

	adminAPI := NewAdminAPI(admin, manager)

	router := gin.New()
	router.POST("/api/v1/admin/login", adminAPI.Login)
	router.POST("/api/v1/admin/refresh", adminAPI.RefreshToken)
	return router, manager
}

func TestAdminAPI_Login(t *testing.T) {
	t.Run("should issue a token for valid credentials", func(t *testing.T) {
		router, manager := setupAdminRouter(t, "hunter2", "")

		w := postJSON(t, router, "/api/v1/admin/login", LoginRequest{Username: "admin", Password: "hunter2"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.True(t, resp.ExpiresAt.After(time.Now()))

		claims, err := manager.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		router, _ := setupAdminRouter(t, "hunter2", "")

		w := postJSON(t, router, "/api/v1/admin/login", LoginRequest{Username: "admin", Password: "wrong"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
	})

	t.Run("should reject an unknown username", func(t *testing.T) {
		router, _ := setupAdminRouter(t, "hunter2", "")

		w := postJSON(t, router, "/api/v1/admin/login", LoginRequest{Username: "root", Password: "hunter2"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should reject missing fields", func(t *testing.T) {
		router, _ := setupAdminRouter(t, "hunter2", "")

		w := postJSON(t, router, "/api/v1/admin/login", map[string]string{"username": "admin"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject every login when no admin password is configured", func(t *testing.T) {
		router, _ := setupAdminRouter(t, "", "")

		w := postJSON(t, router, "/api/v1/admin/login", LoginRequest{Username: "admin", Password: ""})
		assert.Equal(t, http.StatusBadRequest, w.Code) // empty password fails binding

		w = postJSON(t, router, "/api/v1/admin/login", LoginRequest{Username: "admin", Password: "anything"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminAPI_RefreshToken(t *testing.T) {
	t.Run("should exchange a valid token for a fresh one", func(t *testing.T) {
		router, manager := setupAdminRouter(t, "hunter2", "")

		token, err := manager.GenerateToken("admin")
		require.NoError(t, err)

		w := postJSON(t, router, "/api/v1/admin/refresh", RefreshTokenRequest{Token: token})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		claims, err := manager.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("should reject an invalid token", func(t *testing.T) {
		router, _ := setupAdminRouter(t, "hunter2", "")

		w := postJSON(t, router, "/api/v1/admin/refresh", RefreshTokenRequest{Token: "garbage"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should reject a missing token", func(t *testing.T) {
		router, _ := setupAdminRouter(t, "hunter2", "")

		w := postJSON(t, router, "/api/v1/admin/refresh", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
