package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/infrastructure/auth"
	"github.com/orgdir/backend/internal/infrastructure/logger"
	"github.com/orgdir/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	Logger         *zap.Logger
}

// JWTAuthMiddleware requires a valid bearer token on every request of the group
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "missing bearer token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, "token validation failed")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abortUnauthorized(c, log, err, "token without subject")
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()

			// Blacklist failures fail open so a Redis outage does not lock everyone out.
			if claims.ID != "" {
				revoked, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
				if err != nil {
					log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
				} else if revoked {
					abortUnauthorized(c, log, auth.ErrTokenBlacklisted, "token revoked")
					return
				}
			}

			invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, userID, claims.IssuedAtTime())
			if err != nil {
				log.Error("Failed to check user token invalidation", zap.Int64("user_id", userID), zap.Error(err))
			} else if invalidated {
				abortUnauthorized(c, log, auth.ErrTokenBlacklisted, "user session invalidated")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), strconv.FormatInt(userID, 10)))

		c.Next()
	}
}

// RequireSuperuser rejects callers whose token does not carry the superuser flag.
// It must run after JWTAuthMiddleware.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Forbidden", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Debug("JWT authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)

	message := "Unauthorized"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		message = "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		message = "Token has been revoked"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the authenticated user ID from context
func GetJWTUserID(c *gin.Context) (int64, bool) {
	if v, exists := c.Get(JWTUserIDKey); exists {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	return 0, false
}
