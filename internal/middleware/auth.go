package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/auth"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
)

// DefaultAuthCookieName is the cookie that carries the session token.
const DefaultAuthCookieName = "auth_token"

// UserIDHeader lets unauthenticated callers pick a tenant on open routes.
const UserIDHeader = "X-User-ID"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Tokens     *auth.TokenIssuer
	CookieName string
}

func (cfg AuthConfig) cookieName() string {
	if cfg.CookieName == "" {
		return DefaultAuthCookieName
	}
	return cfg.CookieName
}

// Auth returns a middleware that requires a valid session token.
// The token is read from the auth cookie first, then from
// "Authorization: Bearer <token>".
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cfg.cookieName())
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w, "UNAUTHORIZED", "Unauthorized")
				return
			}

			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_token")
				writeAuthError(w, "INVALID_TOKEN", "Invalid token")
				return
			}

			authCtx := auth.AuthContextFromClaims(claims)
			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", authCtx.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			setLoggedUser(r.Context(), authCtx.UserID)
			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identify returns the verified identity of the request, or nil. It never
// fails the request.
func Identify(cfg AuthConfig, r *http.Request) *model.AuthContext {
	if authCtx := auth.AuthFromContext(r.Context()); authCtx != nil {
		return authCtx
	}

	token := ExtractToken(r, cfg.cookieName())
	if token == "" {
		return nil
	}
	claims, err := cfg.Tokens.Verify(token)
	if err != nil {
		return nil
	}
	return auth.AuthContextFromClaims(claims)
}

// ResolveUserID picks the tenant for a request: the verified token subject,
// else the X-User-ID header, else the userId query parameter, else the
// default tenant.
func ResolveUserID(r *http.Request) string {
	if id := auth.UserIDFromContext(r.Context()); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get("userId")); id != "" {
		return id
	}
	return model.DefaultUserID
}

// ExtractToken returns the session token from the named cookie or the
// Authorization header. The cookie wins when both are present.
func ExtractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
func writeAuthError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
