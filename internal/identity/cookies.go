package identity

import (
	"net/http"
	"time"

	"FinDash/internal/domain/models"
)

// CookieConfig describes how session tokens are stored in cookies.
type CookieConfig struct {
	Prefix string
	Secure bool
	MaxAge time.Duration
}

func (c CookieConfig) AccessName() string {
	return c.prefix() + "-access-token"
}

func (c CookieConfig) RefreshName() string {
	return c.prefix() + "-refresh-token"
}

func (c CookieConfig) prefix() string {
	if c.Prefix == "" {
		return "sb"
	}
	return c.Prefix
}

// SessionCookies returns the cookies that persist t.
func (c CookieConfig) SessionCookies(t *models.Tokens) []*http.Cookie {
	accessAge := t.ExpiresIn
	if accessAge <= 0 {
		accessAge = 3600
	}
	return []*http.Cookie{
		c.cookie(c.AccessName(), t.AccessToken, accessAge),
		c.cookie(c.RefreshName(), t.RefreshToken, int(c.MaxAge.Seconds())),
	}
}

// ClearCookies returns mutations that delete both session cookies.
func (c CookieConfig) ClearCookies() []*http.Cookie {
	return []*http.Cookie{
		c.cookie(c.AccessName(), "", -1),
		c.cookie(c.RefreshName(), "", -1),
	}
}

func (c CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
