package rest

import (
	"net/http"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/auth"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// Gate guards the configured path prefixes. A request to a protected path
// passes only with an access cookie that verifies; otherwise it is
// redirected to the login page. The gate never refreshes and never writes
// to the store.
func Gate(codec *auth.Codec, cfg *config.Config, logger logging.Logger) gin.HandlerFunc {
	prefixes := append([]string(nil), cfg.ProtectedPaths...)
	loginPath := cfg.LoginPath
	logger = logger.With("module", "gate")

	return func(c *gin.Context) {
		if !isProtected(c.Request.URL.Path, prefixes) {
			c.Next()
			return
		}

		token := tokenCookie(c, common.AccessTokenCookieName)
		if token == "" {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		userID, err := codec.Verify(token)
		if err != nil {
			logger.Debug(c.Request.Context(), "access token rejected", "path", c.Request.URL.Path, "error", err)
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the subject the gate attached to the request.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func isProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if config.PathUnder(path, p) {
			return true
		}
	}
	return false
}
