// Package request provides request-scoped middleware: request ids, access
// logging and panic recovery.
package request

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "classreg/pkg/domain-errors"
	"classreg/pkg/platform/httputil"
	"classreg/pkg/requestcontext"
)

// HeaderRequestID is echoed on every response.
const HeaderRequestID = "X-Request-ID"

// RequestObserver receives one observation per completed request.
type RequestObserver interface {
	ObserveRequest(route, method, status string, seconds float64)
}

// RequestID reuses an inbound X-Request-ID or mints a UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Logger writes one structured line per request and reports it to observer
// when one is given. uaLabel renders the User-Agent for the log line.
func Logger(logger *slog.Logger, observer RequestObserver, uaLabel func(string) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)

			ctx := r.Context()
			route := r.URL.Path
			if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", elapsed.Milliseconds(),
				"client_ip", requestcontext.ClientIP(ctx),
				"request_id", requestcontext.RequestID(ctx),
			}
			if uaLabel != nil {
				attrs = append(attrs, "user_agent", uaLabel(requestcontext.UserAgent(ctx)))
			}

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "http request", attrs...)

			if observer != nil {
				observer.ObserveRequest(route, r.Method, strconv.Itoa(rec.status), elapsed.Seconds())
			}
		})
	}
}

// Recoverer turns a handler panic into a 500 and logs it.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"panic", rec,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
