package handler

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/linkdeck/linkdeck/internal/infrastructure/auth"
	"github.com/linkdeck/linkdeck/internal/infrastructure/config"
)

// AuthHandler handles authentication for the single admin user
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	authConfig config.AuthConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtService *auth.JWTService, authConfig config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		authConfig: authConfig,
	}
}

// Login godoc
// @Summary      Admin login
// @Description  Authenticate the configured admin user and issue a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.authConfig.Enabled {
		h.Unauthorized(c, "Authentication is not enabled")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	// Compare both credentials before answering so that a wrong username
	// costs the same as a wrong password.
	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.authConfig.Username)) == 1
	passwordOK := auth.VerifyAdminPassword(h.authConfig.PasswordHash, req.Password)
	if !usernameOK || !passwordOK {
		h.Unauthorized(c, "Invalid username or password")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(req.Username)
	if err != nil {
		h.InternalError(c, "Failed to issue tokens")
		return
	}

	h.Success(c, LoginResponse{
		Token:    toTokenResponse(pair),
		Username: req.Username,
	})
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Exchange a valid refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=RefreshTokenResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	if !h.authConfig.Enabled {
		h.Unauthorized(c, "Authentication is not enabled")
		return
	}

	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	pair, err := h.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		h.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	h.Success(c, RefreshTokenResponse{
		Token: toTokenResponse(pair),
	})
}

func toTokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}
