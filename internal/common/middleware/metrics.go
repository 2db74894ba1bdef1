package middleware

import (
	"net/http"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware пишет метрики запросов. Путь webhook содержит секрет,
// поэтому в метку попадает фиксированное имя endpoint, а не URL.
type MetricsMiddleware struct {
	serviceName string
	endpoint    string
}

func NewMetricsMiddleware(serviceName, endpoint string) *MetricsMiddleware {
	return &MetricsMiddleware{
		serviceName: serviceName,
		endpoint:    endpoint,
	}
}

func (m *MetricsMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		metrics.RecordHTTPRequest(
			m.serviceName,
			r.Method,
			m.endpoint,
			rw.statusCode,
			time.Since(start),
		)
	})
}
