package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/handler/dto"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/middleware"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/service"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles signup, login, logout and "who am I".
type AuthHandler struct {
	svc     *service.AuthService
	authCfg middleware.AuthConfig
	cookie  CookieConfig
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, authCfg middleware.AuthConfig, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultAuthCookieName
	}
	if cookie.MaxAge == 0 {
		cookie.MaxAge = svc.TokenTTL()
	}
	authCfg.CookieName = cookie.Name
	return &AuthHandler{
		svc:     svc,
		authCfg: authCfg,
		cookie:  cookie,
		logger:  logger,
	}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.svc.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "")
		return
	}

	h.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusCreated, sessionResponse(session))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "")
		return
	}

	h.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// Logout handles POST /auth/logout. Tokens are not revoked; the cookie is
// cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me. It never fails; an absent or invalid token
// yields {"authenticated": false}.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.Identify(h.authCfg, r)
	if authCtx == nil {
		writeJSON(w, http.StatusOK, dto.MeResponse{Authenticated: false})
		return
	}

	writeJSON(w, http.StatusOK, dto.MeResponse{
		Authenticated: true,
		User: &dto.UserResponse{
			ID:       authCtx.UserID,
			Username: authCtx.Username,
		},
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionResponse(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		ID:       s.User.ID,
		Username: s.User.Username,
		Token:    s.Token,
	}
}

// decodeBody decodes a JSON object body into v. An empty body decodes as
// an empty object. It writes the error response and returns false on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !isEOF(err) {
		writeDecodeError(w, err)
		return false
	}
	return true
}
