package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"classreg/internal/platform/metrics"
	"classreg/internal/ratelimit/models"
	"classreg/pkg/platform/httputil"
	"classreg/pkg/requestcontext"
)

// BucketStore is the sliding-window backend consulted per request.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	buckets  BucketStore
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// New limits each client IP to limit requests per window. A non-positive
// limit disables the middleware.
func New(buckets BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		buckets: buckets,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if limit <= 0 || buckets == nil {
		m.disabled = true
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit keys buckets by client IP and chi route pattern. It fails open
// when the bucket store errors.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		route := routePattern(r)
		key := models.NewRateLimitKey(models.KeyPrefixIP, ip, route)

		result, err := m.buckets.Allow(ctx, key.String(), m.limit, m.window)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check IP rate limit",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)

		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.IncRateLimited(route)
			}
			m.logger.WarnContext(ctx, "read rate limit exceeded",
				"client_ip", ip,
				"route", route,
				"request_id", requestcontext.RequestID(ctx),
			)
			writeRateLimitExceeded(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:            "rate_limited",
		ErrorDescription: "Too many requests from this IP address. Please try again later.",
		RetryAfter:       result.RetryAfter,
	})
}
