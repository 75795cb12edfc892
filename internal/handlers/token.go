package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TokenHandler struct {
	tokenService *services.TokenService
	log          *zap.SugaredLogger
}

func NewTokenHandler(ts *services.TokenService, log *zap.SugaredLogger) *TokenHandler {
	return &TokenHandler{tokenService: ts, log: log}
}

// clientCredentials prefers HTTP Basic auth and falls back to the form body
// (RFC 6749 §2.3.1). Basic credentials are form-urlencoded.
func clientCredentials(c *gin.Context) (string, string) {
	if id, secret, ok := c.Request.BasicAuth(); ok {
		if decoded, err := url.QueryUnescape(id); err == nil {
			id = decoded
		}
		if decoded, err := url.QueryUnescape(secret); err == nil {
			secret = decoded
		}
		return id, secret
	}
	return c.PostForm("client_id"), c.PostForm("client_secret")
}

// Token handles POST /connect/token for the authorization_code,
// refresh_token, client_credentials and password grants.
func (h *TokenHandler) Token(c *gin.Context) {
	clientID, clientSecret := clientCredentials(c)

	set, err := h.tokenService.Exchange(c.Request.Context(), services.TokenRequest{
		GrantType:    c.PostForm("grant_type"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		RefreshToken: c.PostForm("refresh_token"),
		Username:     c.PostForm("username"),
		Password:     c.PostForm("password"),
		Scopes:       claims.ParseScopes(c.PostForm("scope")),
	})

	// RFC 6749 §5.1
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// Revoke handles POST /connect/revoke (RFC 7009). Well-formed requests always
// get 200, whether or not the token was valid.
func (h *TokenHandler) Revoke(c *gin.Context) {
	err := h.tokenService.Revoke(c.Request.Context(), c.PostForm("token"), c.PostForm("token_type_hint"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusOK)
}
