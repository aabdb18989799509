package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/handlers/authctx"
	"github.com/esavelyev/staffpass/internal/handlers/render"
	"github.com/esavelyev/staffpass/internal/service/auth/tokencodec"
)

type accessVerifier interface {
	VerifyAccess(tokenString string) (tokencodec.AccessClaims, error)
}

// AuthMiddleware verifies the Bearer access token and attaches its claims to
// the request context. No store lookups happen here: an access token stays
// trusted until it expires.
func AuthMiddleware(v accessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				render.Error(w, render.CodeInvalidToken, "Missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyAccess(token)
			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrTokenExpired):
				render.Error(w, render.CodeTokenExpired, "Access token expired", http.StatusUnauthorized)
				return
			default:
				render.Error(w, render.CodeInvalidToken, "Invalid access token", http.StatusUnauthorized)
				return
			}

			ctx := authctx.New(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// RequirePermission rejects requests whose claims lack the permission.
// Must be chained after AuthMiddleware.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := authctx.FromContext(r.Context())
			if !ok {
				render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !claims.HasPermission(permission) {
				render.Error(w, render.CodeForbidden, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
