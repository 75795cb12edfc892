package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/oidcgate/internal/middleware"
	"github.com/go-authgate/oidcgate/internal/services"
	"github.com/go-authgate/oidcgate/internal/templates"
	"github.com/go-authgate/oidcgate/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	sessionService *services.SessionService
	issuer         string
	log            *zap.SugaredLogger
}

func NewAuthHandler(ss *services.SessionService, issuer string, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		sessionService: ss,
		issuer:         issuer,
		log:            log,
	}
}

// Home shows the signed-in user, if any.
func (h *AuthHandler) Home(c *gin.Context) {
	userName, _ := sessions.Default(c).Get(middleware.SessionUserName).(string)
	templates.RenderTempl(c, http.StatusOK, templates.HomePage(templates.HomePageProps{
		UserName: userName,
		Issuer:   h.issuer,
	}))
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(c *gin.Context) {
	returnURL := util.LocalRedirectOr(c.Query("ReturnUrl"), "")
	if middleware.SessionUser(c) != "" && returnURL != "" {
		c.Redirect(http.StatusFound, returnURL)
		return
	}

	templates.RenderTempl(c, http.StatusOK, templates.LoginPage(templates.LoginPageProps{
		BaseProps: templates.BaseProps{CSRFToken: middleware.GetCSRFToken(c)},
		ReturnURL: returnURL,
	}))
}

// Login handles the login form submission. ReturnUrl is honoured only for
// local paths.
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	returnURL := util.LocalRedirectOr(c.PostForm("ReturnUrl"), "/")

	user, err := h.sessionService.Login(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		var denial *services.Denial
		if !errors.As(err, &denial) {
			h.log.Errorw("login failed", "username", username, "error", err)
			c.String(http.StatusInternalServerError, services.DescServerError)
			return
		}
		templates.RenderTempl(c, http.StatusUnauthorized, templates.LoginPage(templates.LoginPageProps{
			BaseProps: templates.BaseProps{CSRFToken: middleware.GetCSRFToken(c)},
			ReturnURL: util.LocalRedirectOr(c.PostForm("ReturnUrl"), ""),
			Username:  username,
			Error:     denial.Description,
		}))
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, user.ID)
	session.Set(middleware.SessionUserName, user.UserName)
	if err := session.Save(); err != nil {
		h.log.Errorw("failed to save session", "user_id", user.ID, "error", err)
		c.String(http.StatusInternalServerError, services.DescServerError)
		return
	}

	h.log.Infow("user signed in", "user_id", user.ID)
	c.Redirect(http.StatusFound, returnURL)
}

// Logout handles GET|POST /connect/logout. The session is always cleared;
// the redirect honours post_logout_redirect_uri only when some application
// registered it.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		h.log.Warnw("failed to clear session", "error", err)
	}

	uri := c.Query("post_logout_redirect_uri")
	if uri == "" {
		uri = c.PostForm("post_logout_redirect_uri")
	}
	c.Redirect(http.StatusFound, h.sessionService.PostLogoutRedirect(c.Request.Context(), uri))
}
