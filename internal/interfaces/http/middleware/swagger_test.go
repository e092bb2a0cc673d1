package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSwagger(cfg SwaggerConfig, auth gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, auth), func(c *gin.Context) {
		c.String(http.StatusOK, "swagger")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	deny := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	}
	allow := func(c *gin.Context) {}

	tests := []struct {
		name       string
		cfg        SwaggerConfig
		auth       gin.HandlerFunc
		remoteAddr string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "disabled returns 404",
			cfg:        SwaggerConfig{Enabled: false},
			wantStatus: http.StatusNotFound,
			wantBody:   "NOT_FOUND",
		},
		{
			name:       "enabled without restrictions",
			cfg:        SwaggerConfig{Enabled: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "allowed ip",
			cfg:        SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.1.10"}},
			remoteAddr: "192.168.1.10:5555",
			wantStatus: http.StatusOK,
		},
		{
			name:       "ip outside allow list",
			cfg:        SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.1.10"}},
			remoteAddr: "10.0.0.1:5555",
			wantStatus: http.StatusForbidden,
			wantBody:   "FORBIDDEN",
		},
		{
			name:       "ip inside allowed cidr",
			cfg:        SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}},
			remoteAddr: "10.20.30.40:5555",
			wantStatus: http.StatusOK,
		},
		{
			name:       "auth required and rejected",
			cfg:        SwaggerConfig{Enabled: true, RequireAuth: true},
			auth:       deny,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "auth required and granted",
			cfg:        SwaggerConfig{Enabled: true, RequireAuth: true},
			auth:       allow,
			wantStatus: http.StatusOK,
		},
		{
			name:       "ip check runs before auth",
			cfg:        SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"127.0.0.1"}},
			auth:       allow,
			remoteAddr: "8.8.8.8:1234",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveSwagger(tt.cfg, tt.auth, tt.remoteAddr)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	ips, nets := parseAllowList([]string{"127.0.0.1", "172.16.0.0/12", "not-an-ip", "10.0.0.0/abc"})
	assert.Len(t, ips, 1)
	assert.Len(t, nets, 1)

	assert.True(t, isIPAllowed(net.ParseIP("127.0.0.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("172.20.1.1"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("192.168.0.1"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}
