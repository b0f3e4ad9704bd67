package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisLimitedRouter(t *testing.T, rps float64, burst int, window time.Duration) (*gin.Engine, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, rps, burst, window))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r, m
}

func TestRedisRateLimitMiddleware_WindowAndRecovery(t *testing.T) {
	r, m := newRedisLimitedRouter(t, 1, 0, time.Second)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.2.0.1:1000", "/r"))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.2.0.1:1000", "/r"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Contains(t, w2.Body.String(), "rate limit exceeded")

	// past the window the counter key has expired and requests flow again
	m.FastForward(2 * time.Second)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, requestFrom("10.2.0.1:1000", "/r"))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRedisRateLimitMiddleware_KeysCallersIndependently(t *testing.T) {
	r, _ := newRedisLimitedRouter(t, 1, 0, time.Second)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.2.0.2:1000", "/r"))
	require.Equal(t, http.StatusOK, w1.Code)

	// a different caller has its own window
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.2.0.3:1000", "/r"))
	require.Equal(t, http.StatusOK, w2.Code)

	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, requestFrom("10.2.0.2:1000", "/r"))
	require.Equal(t, http.StatusTooManyRequests, w3.Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBack(t *testing.T) {
	r := gin.New()
	r.Use(RedisRateLimitMiddleware(nil, 10, 2, time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, requestFrom("10.2.0.4:1000", "/r"))
	require.Equal(t, http.StatusOK, w.Code)
}
