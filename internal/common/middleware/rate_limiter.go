package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware ограничивает число входящих запросов с одного IP.
type RateLimiterMiddleware struct {
	clients    map[string]*clientLimiter
	mu         sync.Mutex
	rate       rate.Limit
	burst      int
	expiration time.Duration
	logger     *slog.Logger
}

// NewRateLimiterMiddleware разрешает requests запросов за window. Очистка неактивных
// клиентов останавливается вместе с ctx.
func NewRateLimiterMiddleware(
	ctx context.Context,
	requests int,
	window time.Duration,
	logger *slog.Logger,
) *RateLimiterMiddleware {
	m := &RateLimiterMiddleware{
		clients:    make(map[string]*clientLimiter),
		rate:       rate.Limit(float64(requests) / window.Seconds()),
		burst:      requests,
		expiration: 1 * time.Hour,
		logger:     logger,
	}

	go m.cleanupClients(ctx)

	return m
}

func (m *RateLimiterMiddleware) limiterFor(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.clients[ip]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.clients[ip] = client
	}

	client.lastSeen = time.Now()

	return client.limiter
}

func (m *RateLimiterMiddleware) cleanupClients(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			for ip, client := range m.clients {
				if time.Since(client.lastSeen) > m.expiration {
					delete(m.clients, ip)
				}
			}
			m.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !m.limiterFor(ip).Allow() {
			retryAfter := int(1 / float64(m.rate))
			if retryAfter < 1 {
				retryAfter = 1
			}

			m.logger.Warn("Превышен лимит запросов",
				"ip", ip,
				"path", r.URL.Path,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")

			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)

			return
		}

		next.ServeHTTP(w, r)
	})
}
