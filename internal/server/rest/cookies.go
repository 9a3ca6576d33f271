package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// setTokenCookie writes an HttpOnly, SameSite=Strict cookie for the whole
// site whose Max-Age equals the token lifetime.
func setTokenCookie(c *gin.Context, name, value string, ttl time.Duration, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookie(c *gin.Context, name string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// tokenCookie returns the cookie value or "" when it is absent.
func tokenCookie(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}
