package handlers

import (
	"net/http"

	"github.com/go-authgate/oidcgate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// APIHandler is a small protected resource used to check issued tokens.
type APIHandler struct{}

func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

// Secure echoes the claims of any valid access token.
func (h *APIHandler) Secure(c *gin.Context) {
	h.echo(c)
}

// Scoped is mounted behind RequireBearer with the "api" scope.
func (h *APIHandler) Scoped(c *gin.Context) {
	h.echo(c)
}

func (h *APIHandler) echo(c *gin.Context) {
	grant := middleware.GrantFromContext(c)
	if grant == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject":   grant.Subject,
		"client_id": grant.ClientID,
		"scopes":    grant.Scopes,
		"claims":    grant.Claims,
	})
}
