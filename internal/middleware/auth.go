package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-authgate/oidcgate/internal/services"
	"github.com/go-authgate/oidcgate/internal/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Login session keys.
const (
	SessionUserID   = "user_id"
	SessionUserName = "user_name"
)

const grantContextKey = "token_grant"

// SessionUser returns the user id stored in the login session, or "".
func SessionUser(c *gin.Context) string {
	userID, _ := sessions.Default(c).Get(SessionUserID).(string)
	return userID
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireBearer validates the bearer access token and stores the verified
// grant in the context. When scopes are given every one of them must have
// been granted.
func RequireBearer(tokens *services.TokenService, log *zap.SugaredLogger, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		grant, err := tokens.ValidateBearer(c.Request.Context(), BearerToken(c))
		if err != nil {
			var denial *services.Denial
			if errors.As(err, &denial) {
				BearerChallenge(c, http.StatusUnauthorized, denial.Code, denial.Description)
				return
			}
			log.Errorw("bearer validation failed", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":             services.ErrorServerError,
				"error_description": services.DescServerError,
			})
			return
		}

		for _, scope := range scopes {
			if !grant.HasScope(scope) {
				BearerChallenge(c, http.StatusForbidden, "insufficient_scope", services.DescInsufficientScope)
				return
			}
		}

		c.Set(grantContextKey, grant)
		c.Next()
	}
}

// BearerChallenge aborts with an RFC 6750 error response.
func BearerChallenge(c *gin.Context, status int, code, description string) {
	c.Header("WWW-Authenticate",
		fmt.Sprintf(`Bearer error=%q, error_description=%q`, code, description))
	c.AbortWithStatusJSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// GrantFromContext returns the grant stored by RequireBearer.
func GrantFromContext(c *gin.Context) *token.Grant {
	grant, _ := c.Get(grantContextKey)
	g, _ := grant.(*token.Grant)
	return g
}
