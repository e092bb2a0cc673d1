package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgdir/backend/internal/infrastructure/auth"
	"github.com/orgdir/backend/internal/infrastructure/config"
	"github.com/orgdir/backend/internal/interfaces/http/dto"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.AuthConfig{
		Secret:        "test-secret-key-at-least-32-chars",
		TokenLifetime: 15 * time.Minute,
		Issuer:        "test-issuer",
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, userID int64, superuser bool) string {
	t.Helper()
	token, err := svc.GenerateAccessToken(auth.TokenSubject{
		UserID:      userID,
		Email:       "user@example.com",
		IsSuperuser: superuser,
	})
	require.NoError(t, err)
	return token.Token
}

// failingBlacklist simulates an unreachable Redis.
type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}
func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingBlacklist) InvalidateUserTokens(context.Context, int64, time.Duration) error {
	return errors.New("redis down")
}
func (failingBlacklist) IsUserTokenInvalidated(context.Context, int64, time.Time) (bool, error) {
	return false, errors.New("redis down")
}

func jwtRouter(cfg JWTMiddlewareConfig, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(cfg))
	router.Use(extra...)
	router.GET("/me", func(c *gin.Context) {
		id, ok := GetJWTUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "email": GetJWTClaims(c).Email})
	})
	return router
}

func doGet(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(AuthHeaderKey, authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	router := jwtRouter(JWTMiddlewareConfig{JWTService: svc})

	w := doGet(router, "/me", "Bearer "+issueToken(t, svc, 7, false))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, "user@example.com", body["email"])
}

func TestJWTAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	svc := newTestJWTService()
	router := jwtRouter(JWTMiddlewareConfig{JWTService: svc})

	w := doGet(router, "/me", "bearer "+issueToken(t, svc, 7, false))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()
	other := auth.NewJWTService(config.AuthConfig{Secret: "another-secret-key-of-32-characters"})
	router := jwtRouter(JWTMiddlewareConfig{JWTService: svc})

	tests := map[string]string{
		"missing header":    "",
		"wrong scheme":      "Basic dXNlcjpwYXNz",
		"empty token":       "Bearer   ",
		"garbage token":     "Bearer not-a-jwt",
		"foreign signature": "Bearer " + issueToken(t, other, 7, false),
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			w := doGet(router, "/me", header)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_BlacklistedToken(t *testing.T) {
	svc := newTestJWTService()
	blacklist := auth.NewInMemoryTokenBlacklist()
	router := jwtRouter(JWTMiddlewareConfig{JWTService: svc, TokenBlacklist: blacklist})

	token := issueToken(t, svc, 7, false)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

	w := doGet(router, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token has been revoked")

	// A fresh token for the same user is unaffected.
	w = doGet(router, "/me", "Bearer "+issueToken(t, svc, 7, false))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_BlacklistFailureFailsOpen(t *testing.T) {
	svc := newTestJWTService()
	router := jwtRouter(JWTMiddlewareConfig{JWTService: svc, TokenBlacklist: failingBlacklist{}})

	w := doGet(router, "/me", "Bearer "+issueToken(t, svc, 7, false))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSuperuser(t *testing.T) {
	svc := newTestJWTService()
	router := jwtRouter(JWTMiddlewareConfig{JWTService: svc}, RequireSuperuser())

	w := doGet(router, "/me", "Bearer "+issueToken(t, svc, 1, false))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeForbidden)

	w = doGet(router, "/me", "Bearer "+issueToken(t, svc, 1, true))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAccessors_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	_, ok := GetJWTUserID(c)
	assert.False(t, ok)

	c.Set(JWTUserIDKey, "7")
	_, ok = GetJWTUserID(c)
	assert.False(t, ok, "wrong type is ignored")
}
