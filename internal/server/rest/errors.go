package rest

import (
	"net/http"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/gin-gonic/gin"
)

type publicError struct {
	status  int
	message string
}

// publicErrors is the only source of error bodies sent to clients.
var publicErrors = map[common.Kind]publicError{
	common.KindInvalidCredentials:  {http.StatusUnauthorized, "Invalid credentials"},
	common.KindNoRefreshToken:      {http.StatusUnauthorized, "No refresh token"},
	common.KindInvalidRefreshToken: {http.StatusUnauthorized, "Invalid refresh token"},
	common.KindStoreUnavailable:    {http.StatusServiceUnavailable, "Service temporarily unavailable"},
	common.KindRateLimited:         {http.StatusTooManyRequests, "Too many login attempts"},
	common.KindEmailTaken:          {http.StatusConflict, "Email already registered"},
	common.KindBadRequest:          {http.StatusBadRequest, "Invalid request"},
	common.KindInternal:            {http.StatusInternalServerError, "Internal server error"},
}

func publicErrorFor(err error) (common.Kind, publicError) {
	kind := common.KindOf(err)
	pe, ok := publicErrors[kind]
	if !ok {
		kind = common.KindInternal
		pe = publicErrors[common.KindInternal]
	}
	return kind, pe
}

// writeError logs the cause and aborts with the public status and message
// for err's kind.
func writeError(c *gin.Context, logger logging.Logger, err error) {
	kind, pe := publicErrorFor(err)

	ctx := c.Request.Context()
	if pe.status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "kind", kind.String(), "path", c.Request.URL.Path, "error", err)
	} else {
		logger.Info(ctx, "request rejected", "kind", kind.String(), "path", c.Request.URL.Path, "error", err)
	}

	c.AbortWithStatusJSON(pe.status, gin.H{"error": pe.message})
}
