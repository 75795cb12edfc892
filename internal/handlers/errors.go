package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/oidcgate/internal/middleware"
	"github.com/go-authgate/oidcgate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// denialStatus maps an OAuth error code to its HTTP status.
func denialStatus(code string) int {
	switch code {
	case services.ErrorInvalidClient, services.ErrorInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// respondError writes {error, error_description}. A *services.Denial is
// returned to the caller as is; anything else is logged and hidden behind
// server_error.
func respondError(c *gin.Context, log *zap.SugaredLogger, err error) {
	var denial *services.Denial
	if !errors.As(err, &denial) {
		log.Errorw("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString("request_id"),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             services.ErrorServerError,
			"error_description": services.DescServerError,
		})
		return
	}

	switch denial.Code {
	case services.ErrorInvalidClient:
		// RFC 6749 §5.2
		c.Header("WWW-Authenticate", `Basic realm="oidcgate"`)
	case services.ErrorInvalidToken:
		middleware.BearerChallenge(c, http.StatusUnauthorized, denial.Code, denial.Description)
		return
	}
	c.JSON(denialStatus(denial.Code), gin.H{
		"error":             denial.Code,
		"error_description": denial.Description,
	})
}
