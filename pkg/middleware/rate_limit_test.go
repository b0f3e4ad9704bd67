package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/familyvault/familyvault/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// limiters are cached per client key, so each test uses its own address
func requestFrom(addr, path string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	// two quick requests should pass
	w := httptest.NewRecorder()
	r.ServeHTTP(w, requestFrom("10.1.0.1:1000", "/ok"))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.1.0.1:1000", "/ok"))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)

	// verify metrics incremented for memory limiter
	after := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	require.Equal(t, 2.0, after-before)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	// low rate to force rejections: 2 tokens/s, bucket of 1
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// first request -> allowed
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.1.0.2:1000", "/limited"))
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request -> should be rate-limited
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.1.0.2:1000", "/limited"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	// at 2 tokens/s a 600ms wait replenishes the bucket
	time.Sleep(600 * time.Millisecond)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, requestFrom("10.1.0.2:1000", "/limited"))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_UsesSubjectWhenPresent(t *testing.T) {
	r := gin.New()
	// middleware that injects claims before rate limiter
	r.Use(func(c *gin.Context) {
		c.Set("claims", map[string]interface{}{"sub": "user-123"})
		c.Next()
	})
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// first request allowed
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.1.0.3:1000", "/u"))
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request => rejected for same subject
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.1.0.3:1000", "/u"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
}
