package http

import (
	"errors"
	"net/http"

	"github.com/harborchat/harbor/internal/chat/service"
	"github.com/harborchat/harbor/pkg/httpx"
	"github.com/harborchat/harbor/pkg/slogx"
)

// ProfileHandler serves the authenticated profile endpoints.
type ProfileHandler struct {
	Users *service.UserService
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// HandleMe serves GET /v1/me.
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		errUnauthenticated.WriteError(w)
		return
	}

	u, err := h.Users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			errUserNotFound.WriteError(w)
			return
		}
		log.Error("me lookup failed", "err", err)
		errServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleUpdate serves PUT /v1/profile.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		errUnauthenticated.WriteError(w)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	u, err := h.Users.UpdateProfile(ctx, userID, req.DisplayName, req.AvatarURL)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			errUserNotFound.WriteError(w)
			return
		}
		log.Error("profile update failed", "err", err)
		errServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
