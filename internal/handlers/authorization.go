package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/middleware"
	"github.com/go-authgate/oidcgate/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxAuthorizeBody bounds the form payload replayed after login.
const maxAuthorizeBody = 16 << 10

type AuthorizationHandler struct {
	authorizeService *services.AuthorizeService
	log              *zap.SugaredLogger
}

func NewAuthorizationHandler(as *services.AuthorizeService, log *zap.SugaredLogger) *AuthorizationHandler {
	return &AuthorizationHandler{authorizeService: as, log: log}
}

// Authorize handles GET|POST /connect/authorize. Without a login session the
// user agent is sent to the login page with the original request as
// ReturnUrl; with one it is sent back to the client with a code.
func (h *AuthorizationHandler) Authorize(c *gin.Context) {
	returnURL := c.Request.URL.Path
	if c.Request.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuthorizeBody+1))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		if len(body) > maxAuthorizeBody {
			respondError(c, h.log, &services.Denial{
				Code:        services.ErrorInvalidRequest,
				Description: services.DescRequestTooLarge,
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if len(body) > 0 {
			returnURL += "?" + string(body)
		}
	} else if c.Request.URL.RawQuery != "" {
		returnURL += "?" + c.Request.URL.RawQuery
	}

	// Request.Form merges the query string and the form body.
	if err := c.Request.ParseForm(); err != nil {
		respondError(c, h.log, err)
		return
	}
	form := c.Request.Form

	location, challenge, err := h.authorizeService.Authorize(c.Request.Context(), services.AuthorizeRequest{
		ResponseType:  form.Get("response_type"),
		ClientID:      form.Get("client_id"),
		RedirectURI:   form.Get("redirect_uri"),
		Scopes:        claims.ParseScopes(form.Get("scope")),
		State:         form.Get("state"),
		Nonce:         form.Get("nonce"),
		SessionUserID: middleware.SessionUser(c),
		ReturnURL:     returnURL,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if challenge != nil && challenge.StaleSession {
		session := sessions.Default(c)
		session.Clear()
		if err := session.Save(); err != nil {
			h.log.Warnw("failed to clear stale session", "error", err)
		}
	}

	c.Redirect(http.StatusFound, location)
}
