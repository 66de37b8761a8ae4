package service

import (
	"context"
	"errors"
	"strings"

	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/internal/chat/store"
)

var ErrUserNotFound = errors.New("user_not_found")

// UserService serves profile reads and updates for authenticated users.
type UserService struct {
	Store store.Store
}

func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// UpdateProfile changes the display name and avatar, then returns the fresh
// record. An empty field keeps the current value, so a name-only update
// never touches the stored avatar.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, displayName, avatarURL string) (domain.User, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = current.DisplayName
	}

	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		err = s.Store.Users().UpdateDisplayName(ctx, userID, displayName)
	} else {
		err = s.Store.Users().UpdateProfile(ctx, userID, displayName, avatarURL)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return s.Get(ctx, userID)
}
