package http

import (
	"net/http"
	"time"

	"github.com/harborchat/harbor/pkg/httpx"
)

// cookieSink delivers minted credentials as HTTP-only cookies on the
// response. It implements service.CredentialSink.
type cookieSink struct {
	w      http.ResponseWriter
	secure bool
}

func newCookieSink(w http.ResponseWriter, secure bool) *cookieSink {
	return &cookieSink{w: w, secure: secure}
}

func (s *cookieSink) WriteAccess(token string, ttl time.Duration) {
	http.SetCookie(s.w, s.cookie(httpx.AccessTokenCookie, token, ttl))
}

func (s *cookieSink) WriteRefresh(token string, ttl time.Duration) {
	http.SetCookie(s.w, s.cookie(httpx.RefreshTokenCookie, token, ttl))
}

func (s *cookieSink) Clear() {
	http.SetCookie(s.w, s.cookie(httpx.AccessTokenCookie, "", -time.Second))
	http.SetCookie(s.w, s.cookie(httpx.RefreshTokenCookie, "", -time.Second))
}

func (s *cookieSink) cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}
