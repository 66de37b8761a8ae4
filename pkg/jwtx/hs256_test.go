package jwtx_test

import (
	"testing"
	"time"

	"github.com/harborchat/harbor/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestHS256RoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256([]byte("access-secret"))
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	verifier, err := jwtx.NewVerifierHS256([]byte("access-secret"), jwtx.VerifyOptions{})
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := jwtx.NewClaims("01J5TESTUSER", "Alice", time.Minute, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "01J5TESTUSER", got.Subject)
	require.Equal(t, "Alice", got.DisplayName)
	require.WithinDuration(t, now.Add(time.Minute), got.ExpiresAt.Time, time.Second)
}

func TestHS256RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	accessSigner, err := jwtx.NewSignerHS256([]byte("access-secret"))
	require.NoError(t, err)

	refreshVerifier, err := jwtx.NewVerifierHS256([]byte("refresh-secret"), jwtx.VerifyOptions{})
	require.NoError(t, err)

	token, err := accessSigner.Sign(jwtx.NewClaims("u1", "Alice", time.Minute, time.Now().UTC()))
	require.NoError(t, err)

	// Cross-class verification: valid-looking token, wrong class secret.
	_, err = refreshVerifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256RejectsExpired(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256([]byte("secret"))
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256([]byte("secret"), jwtx.VerifyOptions{})
	require.NoError(t, err)

	expired := jwtx.NewClaims("u1", "Alice", time.Minute, time.Now().UTC().Add(-2*time.Minute))
	token, err := signer.Sign(expired)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestHS256RejectsGarbage(t *testing.T) {
	t.Parallel()

	verifier, err := jwtx.NewVerifierHS256([]byte("secret"), jwtx.VerifyOptions{})
	require.NoError(t, err)

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := verifier.Verify(raw)
		require.Error(t, err, "input %q should not verify", raw)
	}
}

func TestHS256Leeway(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256([]byte("secret"))
	require.NoError(t, err)

	verifier, err := jwtx.NewVerifierHS256([]byte("secret"), jwtx.VerifyOptions{Leeway: 30 * time.Second})
	require.NoError(t, err)

	// Expired ten seconds ago, inside the leeway window.
	claims := jwtx.NewClaims("u1", "Alice", time.Minute, time.Now().UTC().Add(-70*time.Second))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.NoError(t, err)
}

func TestNewSignerHS256EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewSignerHS256(nil)
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)

	_, err = jwtx.NewVerifierHS256(nil, jwtx.VerifyOptions{})
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)
}
