// Package realtime carries the WebSocket side of the chat service: the
// handshake guard that admits connections and the per-connection session
// that bridges the socket to the message broker.
package realtime

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/harborchat/harbor/pkg/jwtx"
)

// TokenQueryParam is the handshake query parameter carrying the credential.
const TokenQueryParam = "token"

var (
	ErrNoToken  = errors.New("realtime: no token in handshake")
	ErrBadToken = errors.New("realtime: token rejected")
)

// TokenFromQuery extracts the handshake credential from URL query values.
// It returns false when the parameter is absent or blank, so callers can
// distinguish a missing credential from an invalid one.
func TokenFromQuery(q url.Values) (string, bool) {
	token := strings.TrimSpace(q.Get(TokenQueryParam))
	return token, token != ""
}

// Guard authenticates a WebSocket handshake. It runs once, before the
// upgrade; a connection that passes is trusted for its whole lifetime.
//
// Handshakes are validated against the refresh-class verifier. Browser
// WebSocket clients cannot attach cookies or headers to the upgrade from
// script, and the long-lived credential is the one a client can still
// present after its short-lived access token lapsed mid-session.
type Guard struct {
	Verifier jwtx.Verifier
}

// Authenticate resolves the identity for an upgrade request. ErrNoToken
// when nothing was presented, ErrBadToken when verification fails.
func (g *Guard) Authenticate(r *http.Request) (jwtx.Claims, error) {
	token, ok := TokenFromQuery(r.URL.Query())
	if !ok {
		return jwtx.Claims{}, ErrNoToken
	}

	claims, err := g.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, ErrBadToken
	}
	return claims, nil
}
