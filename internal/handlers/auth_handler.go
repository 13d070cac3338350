// Package handlers contains the gin HTTP handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/equillibrium/synergy406todo/internal/apperr"
	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/internal/repositories"
	"github.com/equillibrium/synergy406todo/internal/services"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Abort(c, err)
		return
	}

	result, err := h.auth.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrUsernameTaken):
			apperr.Abort(c, apperr.Conflict(err.Error()))
		default:
			apperr.Abort(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Registration successful",
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Abort(c, err)
		return
	}

	result, err := h.auth.Login(req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			apperr.Abort(c, apperr.Unauthorized(err.Error()))
			return
		}
		apperr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Abort(c, apperr.Unauthorized("refresh token required"))
		return
	}

	pair, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrRefreshInvalid) {
			apperr.Abort(c, apperr.Unauthorized(err.Error()))
			return
		}
		apperr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Tokens refreshed",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Logout handles POST /api/auth/logout. It always reports success.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.LogoutRequest
	// An empty or malformed body still logs the caller out.
	_ = c.ShouldBindJSON(&req)

	if err := h.auth.Logout(req.RefreshToken); err != nil {
		apperr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Me handles GET /api/auth/me for the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("user_id")

	user, err := h.auth.CurrentUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			apperr.Abort(c, apperr.NotFound("user not found"))
			return
		}
		apperr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
