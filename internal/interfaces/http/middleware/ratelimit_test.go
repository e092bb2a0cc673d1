package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		defer limiter.Stop()

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client"))
		assert.Equal(t, 0, limiter.Remaining("client"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()

		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()
		now := time.Now()
		limiter.now = func() time.Time { return now }

		assert.True(t, limiter.Allow("c"))
		assert.False(t, limiter.Allow("c"))
		assert.Equal(t, time.Minute, limiter.RetryAfter("c"))

		now = now.Add(time.Minute)
		assert.True(t, limiter.Allow("c"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := NewRateLimiter(50, time.Minute)
		defer limiter.Stop()

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()

	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do("10.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)

	w = do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}
