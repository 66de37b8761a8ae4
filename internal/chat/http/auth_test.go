package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harborchat/harbor/internal/chat/broker"
	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/internal/chat/realtime"
	"github.com/harborchat/harbor/internal/chat/service"
	"github.com/harborchat/harbor/internal/chat/store/drivers/sqlite"
	"github.com/harborchat/harbor/pkg/cryptox"
	"github.com/harborchat/harbor/pkg/httpx"
	"github.com/harborchat/harbor/pkg/jwtx"
	"github.com/harborchat/harbor/pkg/slogx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "chat-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	tokens *service.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	accessSigner, err := jwtx.NewSignerHS256([]byte("access-secret"))
	require.NoError(t, err)
	refreshSigner, err := jwtx.NewSignerHS256([]byte("refresh-secret"))
	require.NoError(t, err)
	accessVerifier, err := jwtx.NewVerifierHS256([]byte("access-secret"), jwtx.VerifyOptions{})
	require.NoError(t, err)
	refreshVerifier, err := jwtx.NewVerifierHS256([]byte("refresh-secret"), jwtx.VerifyOptions{})
	require.NoError(t, err)

	tokens := &service.TokenService{
		AccessSigner:    accessSigner,
		RefreshSigner:   refreshSigner,
		AccessVerifier:  accessVerifier,
		RefreshVerifier: refreshVerifier,
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
	}

	b := broker.NewMemory()
	t.Cleanup(func() { _ = b.Close() })

	logger := slogx.New(slogx.Config{Service: "chat", Env: "test", Level: "error"})

	router := NewRouter(accessVerifier, "test", false, st, logger)
	router.SessionService = &service.SessionService{Store: st, Tokens: tokens}
	router.UserService = &service.UserService{Store: st}
	router.MessageService = &service.MessageService{Broker: b}
	router.ConnectionGuard = &realtime.Guard{Verifier: refreshVerifier}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		srv:    srv,
		client: &http.Client{Jar: jar},
		tokens: tokens,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := e.client.Post(e.srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) cookie(t *testing.T, name string) *http.Cookie {
	t.Helper()

	u, err := url.Parse(e.srv.URL)
	require.NoError(t, err)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Register sets both cookies and returns the new account.
	resp := env.postJSON(t, "/v1/auth/register", map[string]string{
		"email":        "alice@example.com",
		"display_name": "Alice",
		"password":     "correct horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "Alice", body["display_name"])
	require.NotNil(t, env.cookie(t, httpx.AccessTokenCookie))
	require.NotNil(t, env.cookie(t, httpx.RefreshTokenCookie))

	// The access cookie admits /v1/me.
	resp = env.get(t, "/v1/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "alice@example.com", body["email"])

	// Duplicate registration conflicts.
	resp = env.postJSON(t, "/v1/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "other",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_account", decodeBody(t, resp)["error"])

	// Wrong password and unknown email produce the same error.
	for _, creds := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "correct horse"},
	} {
		resp = env.postJSON(t, "/v1/auth/login", creds)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid_credentials", decodeBody(t, resp)["error"])
	}

	// Logout clears the cookies and /v1/me rejects.
	resp = env.postJSON(t, "/v1/auth/logout", map[string]string{})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.get(t, "/v1/me")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthenticated", decodeBody(t, resp)["error"])
}

func TestExpiredAccessThenRefresh(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/v1/auth/register", map[string]string{
		"email":    "bob@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Swap in an access cookie stamped in the past, as if the short TTL
	// elapsed while the refresh token is still live.
	env.tokens.Now = func() time.Time {
		return time.Now().Add(-(jwtx.DefaultAccessTokenTTL + time.Minute))
	}
	resp = env.postJSON(t, "/v1/auth/login", map[string]string{
		"email":    "bob@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	env.tokens.Now = nil

	// The expired access credential is rejected.
	resp = env.get(t, "/v1/me")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Refresh rewrites the access cookie without touching the refresh one.
	before := env.cookie(t, httpx.RefreshTokenCookie)
	require.NotNil(t, before)

	resp = env.postJSON(t, "/v1/auth/refresh", map[string]string{})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	after := env.cookie(t, httpx.RefreshTokenCookie)
	require.NotNil(t, after)
	assert.Equal(t, before.Value, after.Value, "refresh must not rotate the refresh token")

	// And the session works again.
	resp = env.get(t, "/v1/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@example.com", decodeBody(t, resp)["email"])
}

func TestRefreshFailureModes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("no cookie", func(t *testing.T) {
		resp := env.postJSON(t, "/v1/auth/refresh", map[string]string{})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "missing_credential", decodeBody(t, resp)["error"])
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req, err := http.NewRequest("POST", env.srv.URL+"/v1/auth/refresh", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: httpx.RefreshTokenCookie, Value: "garbage"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid_refresh", decodeBody(t, resp)["error"])
	})

	t.Run("access token in refresh slot", func(t *testing.T) {
		access, err := env.tokens.MintAccess(
			mustRegister(t, env, "carol@example.com", "pw"))
		require.NoError(t, err)

		req, err := http.NewRequest("POST", env.srv.URL+"/v1/auth/refresh", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: httpx.RefreshTokenCookie, Value: access})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid_refresh", decodeBody(t, resp)["error"])
	})
}

func TestProfileUpdate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/v1/auth/register", map[string]string{
		"email":        "dave@example.com",
		"display_name": "Dave",
		"password":     "pw",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	raw, err := json.Marshal(map[string]string{
		"display_name": "David",
		"avatar_url":   "https://cdn.example.com/d.png",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("PUT", env.srv.URL+"/v1/profile", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err = env.client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "David", body["display_name"])
	assert.Equal(t, "https://cdn.example.com/d.png", body["avatar_url"])

	resp = env.get(t, "/v1/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "David", decodeBody(t, resp)["display_name"])

	// A name-only update leaves the stored avatar in place.
	raw, err = json.Marshal(map[string]string{"display_name": "Davey"})
	require.NoError(t, err)

	req, err = http.NewRequest("PUT", env.srv.URL+"/v1/profile", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err = env.client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Davey", body["display_name"])
	assert.Equal(t, "https://cdn.example.com/d.png", body["avatar_url"])
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/livez")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])

	resp = env.get(t, "/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])
}

func mustRegister(t *testing.T, env *testEnv, email, password string) domain.User {
	t.Helper()

	resp := env.postJSON(t, "/v1/auth/register", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)

	return domain.User{
		ID:          body["id"].(string),
		Email:       body["email"].(string),
		DisplayName: body["display_name"].(string),
	}
}
