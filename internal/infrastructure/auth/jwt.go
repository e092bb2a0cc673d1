// Package auth issues and validates the bearer tokens used by the user routes.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/orgdir/backend/internal/infrastructure/config"
)

// TokenTypeBearer is the token_type returned by the login endpoint
const TokenTypeBearer = "bearer"

// Audience identifies tokens issued for the JWT auth backend
const Audience = "directory:auth"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims are the JWT claims of an access token. The subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
}

// AccessToken is a signed token with its expiry
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
	TokenType string
}

// TokenSubject is the identity an access token is issued for
type TokenSubject struct {
	UserID      int64
	Email       string
	IsSuperuser bool
}

// JWTService handles JWT token operations
type JWTService struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.AuthConfig) *JWTService {
	lifetime := cfg.TokenLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return &JWTService{
		secret:   []byte(cfg.Secret),
		lifetime: lifetime,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}
}

// GenerateAccessToken signs an HS256 access token for the subject
func (s *JWTService) GenerateAccessToken(sub TokenSubject) (*AccessToken, error) {
	now := s.now()
	expiresAt := now.Add(s.lifetime)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(sub.UserID, 10),
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:       sub.Email,
		IsSuperuser: sub.IsSuperuser,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		Token:     token,
		ExpiresAt: expiresAt,
		TokenType: TokenTypeBearer,
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Lifetime returns the access token lifetime
func (s *JWTService) Lifetime() time.Duration {
	return s.lifetime
}

// UserID parses the subject as a user ID
func (c *Claims) UserID() (int64, error) {
	if c.Subject == "" {
		return 0, ErrMissingUserID
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidClaims
	}
	return id, nil
}

// IssuedAtTime returns the token's issued-at time
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// RemainingTTL returns the time left until the token expires
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
