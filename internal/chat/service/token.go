package service

import (
	"time"

	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/pkg/jwtx"
)

// TokenService mints and verifies the two credential classes. Each class is
// signed with its own secret, so an access token can never pass refresh
// verification (or vice versa) even though both carry the same claim shape.
type TokenService struct {
	AccessSigner    jwtx.Signer
	RefreshSigner   jwtx.Signer
	AccessVerifier  jwtx.Verifier
	RefreshVerifier jwtx.Verifier

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// MintPair signs a fresh access and refresh token for the user. Both tokens
// are minted before either is handed out, so callers never see a partial pair.
func (s *TokenService) MintPair(u domain.User) (domain.TokenPair, error) {
	now := s.now()

	access, err := s.AccessSigner.Sign(jwtx.NewClaims(u.ID, u.DisplayName, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.RefreshSigner.Sign(jwtx.NewClaims(u.ID, u.DisplayName, s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.AccessTTL,
		RefreshTTL:   s.RefreshTTL,
	}, nil
}

// MintAccess signs a fresh access token only. Used on refresh, which leaves
// the presented refresh token in place rather than rotating it.
func (s *TokenService) MintAccess(u domain.User) (string, error) {
	return s.AccessSigner.Sign(jwtx.NewClaims(u.ID, u.DisplayName, s.AccessTTL, s.now()))
}

// VerifyAccess checks an access-class token.
func (s *TokenService) VerifyAccess(token string) (jwtx.Claims, error) {
	return s.AccessVerifier.Verify(token)
}

// VerifyRefresh checks a refresh-class token.
func (s *TokenService) VerifyRefresh(token string) (jwtx.Claims, error) {
	return s.RefreshVerifier.Verify(token)
}
