package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/internal/chat/service"
	"github.com/harborchat/harbor/pkg/httpx"
	"github.com/harborchat/harbor/pkg/slogx"
)

// AuthHandler serves the session lifecycle endpoints under /v1/auth.
type AuthHandler struct {
	Sessions     *service.SessionService
	CookieSecure bool
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// HandleLogin serves POST /v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	sink := newCookieSink(w, h.CookieSecure)
	u, err := h.Sessions.Login(ctx, service.Credentials{Email: req.Email, Password: req.Password}, sink)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			errInvalidCredentials.WriteError(w)
			return
		}
		log.Error("login failed", "err", err)
		errServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleRegister serves POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	sink := newCookieSink(w, h.CookieSecure)
	u, err := h.Sessions.Register(ctx, service.RegisterInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	}, sink)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateAccount):
			errDuplicateAccount.WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			errInvalidRequest.WriteError(w)
		default:
			log.Error("register failed", "err", err)
			errServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleRefresh serves POST /v1/auth/refresh. The refresh token comes from
// the refresh_token cookie; the response rewrites the access cookie only.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var token string
	if c, err := r.Cookie(httpx.RefreshTokenCookie); err == nil {
		token = c.Value
	}

	sink := newCookieSink(w, h.CookieSecure)
	if err := h.Sessions.Refresh(ctx, token, sink); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredential):
			errMissingCredential.WriteError(w)
		case errors.Is(err, service.ErrInvalidRefresh):
			errInvalidRefresh.WriteError(w)
		case errors.Is(err, service.ErrIdentityGone):
			errIdentityGone.WriteError(w)
		default:
			log.Error("refresh failed", "err", err)
			errServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogout serves POST /v1/auth/logout. Always succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sink := newCookieSink(w, h.CookieSecure)
	h.Sessions.Logout(sink)

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.New("unexpected content type")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
