package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	"github.com/central-university-dev/go-shuttle/internal/common/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiterMiddleware(ctx, 3, time.Minute, logger)
	handler := limiter.Middleware(okHandler())

	codes := make([]int, 0, 5)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		req.RemoteAddr = "149.154.167.1:443"

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes)
}

func TestRateLimiter_SeparateClients(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiterMiddleware(ctx, 1, time.Minute, logger)
	handler := limiter.Middleware(okHandler())

	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		req.RemoteAddr = addr

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	handler := middleware.NewMetricsMiddleware("webhook_test", "/webhook").Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}),
	)

	counter := metrics.HTTPRequestsTotal.WithLabelValues("webhook_test", http.MethodPost, "/webhook", metrics.StatusError)
	initial := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/secret-path", nil))

	assert.Equal(t, initial+1, testutil.ToFloat64(counter))
}
