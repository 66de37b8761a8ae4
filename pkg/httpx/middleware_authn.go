package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/harborchat/harbor/pkg/jwtx"
	"github.com/harborchat/harbor/pkg/slogx"
)

// Cookie names for the two credential markers. The HTTP layer writes them as
// HttpOnly cookies; this guard only ever reads the access one.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// AccessTokenFromRequest extracts the access credential from the request's
// standard slots: the access_token cookie first, then an Authorization
// bearer header for cookie-less API clients.
func AccessTokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
		if raw != "" {
			return raw, true
		}
	}

	return "", false
}

// AuthnMiddleware is the per-request guard. It rejects the request with 401
// before any downstream logic when the access credential is absent, forged,
// or expired; otherwise it attaches the resolved identity to the request
// context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := AccessTokenFromRequest(r)
			if !ok {
				writeUnauthenticated(w, "missing access credential")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				// Never log the token itself, only the failure class.
				log.Warn("access token verification failed", "err", err)
				writeUnauthenticated(w, "credential verification failed")
				return
			}

			if err := claims.ValidateExpiry(); err != nil {
				writeUnauthenticated(w, "credential expired")
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithIdentity(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithIdentity(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-flavored rejection; the body keeps the service's error shape.
func writeUnauthenticated(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "unauthenticated",
		"error_description": desc,
	})
}
