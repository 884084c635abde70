package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-adoption-marketplace/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - Si viene Bearer token (o ?access_token= para websockets) y verifier != nil => Verify() y setea claims.
// - Si devHeaders => acepta X-Debug-User-ID (+ X-Debug-Email, X-Debug-Admin) sin token.
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext(verifier auth.AuthVerifier, devHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := requestToken(r); token != "" && verifier != nil {
				claims, err := verifier.Verify(r.Context(), token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
					return
				}
				// No cortamos aquí. El handler decide 401.
			}

			if devHeaders {
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					claims := auth.Claims{
						UserID: uid,
						Email:  strings.TrimSpace(r.Header.Get("X-Debug-Email")),
					}
					if strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Debug-Admin")), "true") {
						claims.Role = auth.RoleAdmin
					}
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// Session devuelve la capability del usuario o nil si no está autenticado.
func Session(ctx context.Context) *auth.Session {
	c, ok := GetClaims(ctx)
	if !ok {
		return nil
	}
	return auth.SessionFromClaims(c)
}

func requestToken(r *http.Request) string {
	if t := bearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	// Los browsers no pueden mandar headers en el handshake de websocket.
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
