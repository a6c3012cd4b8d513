package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"warpgen/internal/auth"
)

// AdminAPI provides login and token refresh for the single admin principal.
type AdminAPI struct {
	admin       *auth.Admin
	authManager *auth.AuthManager
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RefreshTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// NewAdminAPI creates a new admin API instance.
func NewAdminAPI(admin *auth.Admin, authManager *auth.AuthManager) *AdminAPI {
	return &AdminAPI{
		admin:       admin,
		authManager: authManager,
	}
}

// Login handles POST /api/v1/admin/login.
// It checks the presented credentials against the configured admin and
// issues a JWT for the protected endpoints.
func (api *AdminAPI) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if !api.admin.Verify(req.Username, req.Password) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	}

	token, err := api.authManager.GenerateToken(api.admin.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(api.authManager.TokenExpiry()),
	})
}

// RefreshToken handles POST /api/v1/admin/refresh.
// It exchanges a still-valid token for a fresh one.
func (api *AdminAPI) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := api.authManager.RefreshToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(api.authManager.TokenExpiry()),
	})
}
