package routes

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/equillibrium/synergy406todo/internal/apperr"
	"github.com/equillibrium/synergy406todo/internal/repositories"
	"github.com/equillibrium/synergy406todo/internal/services"
)

// TokenExpiredCode is sent alongside 401 when the access token verified but
// has expired, so clients know to attempt a silent refresh instead of
// logging the user out.
const TokenExpiredCode = "TOKEN_EXPIRED"

// AuthMiddleware extracts and verifies the bearer token, re-resolves the user
// from the store, and attaches the identity to the request context. A token
// for a deleted account is rejected even when it still verifies.
func AuthMiddleware(tokens *services.TokenService, users *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apperr.Abort(c, apperr.Unauthorized("no token provided"))
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		userID, err := tokens.VerifyAccess(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				apperr.Abort(c, apperr.Unauthorized("token has expired").WithCode(TokenExpiredCode))
				return
			}
			apperr.Abort(c, apperr.Forbidden("invalid token"))
			return
		}

		user, err := users.FindByID(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				apperr.Abort(c, apperr.Unauthorized("user not found"))
				return
			}
			apperr.Abort(c, err)
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// RequestID tags every request with a unique id for log correlation. An
// incoming X-Request-ID is honored so upstream proxies can trace calls.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
