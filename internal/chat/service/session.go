package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/internal/chat/store"
	"github.com/harborchat/harbor/pkg/cryptox"
	"github.com/harborchat/harbor/pkg/idx"
	"github.com/harborchat/harbor/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrDuplicateAccount   = errors.New("duplicate_account")
	ErrMissingCredential  = errors.New("missing_credential")
	ErrInvalidRefresh     = errors.New("invalid_refresh")
	ErrIdentityGone       = errors.New("identity_gone")
)

// CredentialSink receives minted credentials for delivery back to the caller.
// The HTTP layer backs it with HTTP-only cookies; tests back it with a struct.
// Implementations must tolerate Clear being called with nothing written.
type CredentialSink interface {
	WriteAccess(token string, ttl time.Duration)
	WriteRefresh(token string, ttl time.Duration)
	Clear()
}

// Credentials are what a caller presents to Login.
type Credentials struct {
	Email    string
	Password string
}

// RegisterInput is what a caller presents to Register.
type RegisterInput struct {
	Email       string
	DisplayName string
	Password    string
}

// SessionService owns the login, registration, refresh, and logout flows.
// It never writes a partial credential pair: both tokens are minted before
// either marker reaches the sink, and errors write nothing.
type SessionService struct {
	Store  store.Store
	Tokens *TokenService
}

// Login authenticates by email and password. Every failure mode, including
// an unknown email or a store error, collapses into ErrInvalidCredentials so
// the response never reveals whether the account exists.
func (s *SessionService) Login(ctx context.Context, creds Credentials, sink CredentialSink) (domain.User, error) {
	l := slogx.FromContext(ctx)

	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("login user lookup failed", slog.Any("error", err))
		}
		return domain.User{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(creds.Password, u.PasswordHash); err != nil {
		l.Info("login password verification failed", slog.String("user_id", u.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	if err := s.issue(u, sink); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Register creates a new account and signs it in. A taken email returns
// ErrDuplicateAccount; the check-then-create runs inside a transaction, with
// the unique email index catching the create race.
func (s *SessionService) Register(ctx context.Context, input RegisterInput, sink CredentialSink) (domain.User, error) {
	l := slogx.FromContext(ctx)

	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = email
	}

	hash, err := cryptox.HashPassword(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().GetUserByEmail(ctx, email)
		if err == nil {
			return ErrDuplicateAccount
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.Users().CreateUser(ctx, u)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, ErrDuplicateAccount) {
			return domain.User{}, ErrDuplicateAccount
		}
		l.Error("register failed", slog.Any("error", err))
		return domain.User{}, err
	}

	if err := s.issue(u, sink); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// presented refresh token stays in place; only the access marker is rewritten.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string, sink CredentialSink) error {
	l := slogx.FromContext(ctx)

	if refreshToken == "" {
		return ErrMissingCredential
	}

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("refresh user lookup failed", slog.Any("error", err))
		}
		return ErrIdentityGone
	}

	access, err := s.Tokens.MintAccess(u)
	if err != nil {
		return err
	}

	sink.WriteAccess(access, s.Tokens.AccessTTL)
	return nil
}

// Logout clears both credential markers. It never fails and does not care
// whether the caller was signed in.
func (s *SessionService) Logout(sink CredentialSink) {
	sink.Clear()
}

func (s *SessionService) issue(u domain.User, sink CredentialSink) error {
	pair, err := s.Tokens.MintPair(u)
	if err != nil {
		return err
	}
	sink.WriteAccess(pair.AccessToken, pair.AccessTTL)
	sink.WriteRefresh(pair.RefreshToken, pair.RefreshTTL)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
