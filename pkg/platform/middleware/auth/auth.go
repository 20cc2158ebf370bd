package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
	"classreg/pkg/platform/httputil"
	"classreg/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Account id.AccountID
	JTI     string // JWT ID, logged on every accepted request
}

// RequireAuth rejects requests without a valid bearer token and puts the
// token's account into the request context as the caller.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			logger.DebugContext(ctx, "request authenticated",
				"account", claims.Account.String(),
				"jti", claims.JTI,
				"request_id", requestID,
			)
			ctx = requestcontext.WithCaller(ctx, claims.Account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
