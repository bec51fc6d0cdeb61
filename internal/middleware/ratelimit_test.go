package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, requestsPerWindow int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: requestsPerWindow,
		Window:            time.Minute,
		KeyPrefix:         "import_rate",
	}

	handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))
	return handler, mr
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/inventory/import", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	handler, _ := newLimitedHandler(t, 3)

	for i := 0; i < 3; i++ {
		w := doRequest(handler, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	w := doRequest(handler, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_ClientsCountedSeparately(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1)

	require.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.2:1234").Code)
}

func TestRateLimit_WindowExpiryResetsCounter(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)

	require.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(handler, "10.0.0.1:1234").Code)

	mr.FastForward(2 * time.Minute)

	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1234").Code)
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)
	mr.Close()

	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1234").Code)
}
