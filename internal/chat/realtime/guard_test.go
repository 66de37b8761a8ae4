package realtime

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/harborchat/harbor/pkg/jwtx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromQuery(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		q := url.Values{"token": {"abc.def.ghi"}}
		token, ok := TokenFromQuery(q)
		assert.True(t, ok)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		q := url.Values{"token": {"  abc  "}}
		token, ok := TokenFromQuery(q)
		assert.True(t, ok)
		assert.Equal(t, "abc", token)
	})

	t.Run("absent", func(t *testing.T) {
		_, ok := TokenFromQuery(url.Values{})
		assert.False(t, ok)
	})

	t.Run("blank", func(t *testing.T) {
		_, ok := TokenFromQuery(url.Values{"token": {"   "}})
		assert.False(t, ok)
	})
}

func TestGuardAuthenticate(t *testing.T) {
	t.Parallel()

	secret := []byte("refresh-secret")
	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{})
	require.NoError(t, err)

	wrongSigner, err := jwtx.NewSignerHS256([]byte("access-secret"))
	require.NoError(t, err)

	guard := &Guard{Verifier: verifier}

	t.Run("valid token", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewClaims("user-1", "Alice", time.Hour, time.Now()))
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/v1/ws?token="+url.QueryEscape(token), nil)
		claims, err := guard.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "Alice", claims.DisplayName)
	})

	t.Run("missing token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/ws", nil)
		_, err := guard.Authenticate(r)
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("wrong class token", func(t *testing.T) {
		token, err := wrongSigner.Sign(jwtx.NewClaims("user-1", "Alice", time.Hour, time.Now()))
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/v1/ws?token="+url.QueryEscape(token), nil)
		_, err = guard.Authenticate(r)
		assert.ErrorIs(t, err, ErrBadToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewClaims("user-1", "Alice", time.Hour, time.Now().Add(-2*time.Hour)))
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/v1/ws?token="+url.QueryEscape(token), nil)
		_, err = guard.Authenticate(r)
		assert.ErrorIs(t, err, ErrBadToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/ws?token=garbage", nil)
		_, err := guard.Authenticate(r)
		assert.ErrorIs(t, err, ErrBadToken)
	})
}
