package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ideagraph/pkg/auth"
	"ideagraph/pkg/common"
	pkgerrors "ideagraph/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate validates the bearer token, applies the per-user rate limit
// and puts the subject on the request context as the project owner.
func Authenticate(
	validator *auth.JWTValidator,
	limiter *auth.UserRateLimiter,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authentication token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Debug("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(tokenMessage(err)))
				return
			}

			if limiter != nil {
				allowed, err := limiter.Allow(r.Context(), claims.UserID())
				if err != nil {
					errorHandler.Handle(w, r, pkgerrors.NewInternalError("rate limiter failure").WithCause(err))
					return
				}
				if !allowed {
					errorHandler.Handle(w, r, pkgerrors.NewRateLimitError(limiter.Limit(), "1m"))
					return
				}
			}

			ctx := common.WithUserID(r.Context(), claims.UserID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "Invalid token signature"
	default:
		return "Invalid token"
	}
}

// extractToken reads the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
