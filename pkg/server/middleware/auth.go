package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/de-tools/cost-atlas/pkg/handlers/respond"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/auth"
	"github.com/rs/zerolog"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate rejects requests without a valid bearer token and attaches the caller otherwise.
func Authenticate(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger := zerolog.Ctx(req.Context())

			scheme, token, ok := strings.Cut(req.Header.Get("Authorization"), " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				respond.Message(w, req, http.StatusUnauthorized, "missing bearer token")
				return
			}

			principal, err := verifier.Verify(req.Context(), token)
			if err != nil {
				logger.Debug().Err(err).Msg("token rejected")
				respond.Message(w, req, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			reqLogger := logger.With().Str("user", principal.ID).Logger()
			ctx := reqLogger.WithContext(WithPrincipal(req.Context(), principal))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func RequireAdmin(adminGroup string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			principal, ok := PrincipalFrom(req.Context())
			if !ok {
				respond.Message(w, req, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !principal.IsAdmin(adminGroup) {
				respond.Message(w, req, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
