package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/and161185/vidhub/internal/config"
	"github.com/and161185/vidhub/internal/model"
)

// Cookie names shared by login, refresh and logout.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CookiePolicy holds the attributes applied to both token cookies.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
	Path     string
	now      func() time.Time
}

// NewCookiePolicy builds the policy from validated configuration.
func NewCookiePolicy(c config.CookieConfig) CookiePolicy {
	p := CookiePolicy{Secure: c.Secure, Domain: c.Domain, Path: c.Path, SameSite: http.SameSiteLaxMode}
	switch c.SameSite {
	case "strict":
		p.SameSite = http.SameSiteStrictMode
	case "none":
		p.SameSite = http.SameSiteNoneMode
	}
	if p.Path == "" {
		p.Path = "/"
	}
	return p
}

func (p CookiePolicy) cookie(name, value string, expires time.Time) *http.Cookie {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.Path,
		Domain:   p.Domain,
		Secure:   p.Secure,
		HttpOnly: true,
		SameSite: p.SameSite,
	}
	if value == "" {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		return ck
	}
	ck.Expires = expires
	ck.MaxAge = int(expires.Sub(now()).Seconds())
	return ck
}

// Set writes both token cookies.
func (p CookiePolicy) Set(c *gin.Context, pair model.TokenPair) {
	http.SetCookie(c.Writer, p.cookie(AccessCookie, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(c.Writer, p.cookie(RefreshCookie, pair.RefreshToken, pair.RefreshExpiresAt))
}

// Clear expires both token cookies.
func (p CookiePolicy) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, p.cookie(AccessCookie, "", time.Time{}))
	http.SetCookie(c.Writer, p.cookie(RefreshCookie, "", time.Time{}))
}
