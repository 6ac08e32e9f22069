package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/calabozos/calabozos-backend/internal/middleware"
	"github.com/calabozos/calabozos-backend/internal/model"
	"github.com/calabozos/calabozos-backend/internal/repository"
	"github.com/calabozos/calabozos-backend/internal/response"
	"github.com/calabozos/calabozos-backend/internal/service"
	"github.com/calabozos/calabozos-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	secureCookie bool
	log          zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the token
// cookie Secure and should be true whenever the API is served over TLS.
func NewAuthHandler(authService *service.AuthService, secureCookie bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
		log:          log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login godoc
// POST /api/login
// Validates email + password and returns a JWT. The token is also set as a
// cookie so the HTML pages can be opened directly in a browser.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Msg("Login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	maxAge := int(time.Until(res.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, res.Token, maxAge, "/", "", h.secureCookie, true)

	response.Success(c, http.StatusOK, res)
}

// Logout godoc
// POST /api/logout
// Revokes the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Logout failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/user
// Returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	u, err := h.authService.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u})
}
