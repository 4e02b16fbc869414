package middlewares

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/observability/logger"
	"github.com/dropDatabas3/authbridge/internal/rate"
)

type limiterFunc func(ctx context.Context, key string) (rate.Result, error)

func (f limiterFunc) Allow(ctx context.Context, key string) (rate.Result, error) { return f(ctx, key) }

func TestWithRateLimit(t *testing.T) {
	restore := logger.Replace(zap.NewNop())
	defer restore()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("blocks over limit", func(t *testing.T) {
		h := WithRateLimit(RateLimitConfig{Limiter: rate.NewMemoryLimiter(1, time.Hour)})(ok)

		req := httptest.NewRequest(http.MethodGet, "/auth/twitter/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("key uses forwarded ip", func(t *testing.T) {
		var got string
		h := WithRateLimit(RateLimitConfig{Limiter: limiterFunc(func(_ context.Context, key string) (rate.Result, error) {
			got = key
			return rate.Result{Allowed: true}, nil
		})})(ok)

		req := httptest.NewRequest(http.MethodGet, "/auth/github/login", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "203.0.113.9|/auth/github/login", got)
	})

	t.Run("limiter failure lets the request through", func(t *testing.T) {
		h := WithRateLimit(RateLimitConfig{Limiter: limiterFunc(func(context.Context, string) (rate.Result, error) {
			return rate.Result{}, stderrors.New("redis down")
		})})(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("nil limiter is a no-op", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WithRateLimit(RateLimitConfig{})(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
