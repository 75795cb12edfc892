package handlers

import (
	"net/http"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/middleware"
	"github.com/go-authgate/oidcgate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OIDCHandler handles OIDC Discovery and UserInfo endpoints.
type OIDCHandler struct {
	sessionService *services.SessionService
	scopeService   *services.ScopeService
	config         *config.Config
	log            *zap.SugaredLogger
}

// NewOIDCHandler creates a new OIDCHandler.
func NewOIDCHandler(
	ss *services.SessionService,
	scopes *services.ScopeService,
	cfg *config.Config,
	log *zap.SugaredLogger,
) *OIDCHandler {
	return &OIDCHandler{
		sessionService: ss,
		scopeService:   scopes,
		config:         cfg,
		log:            log,
	}
}

// discoveryMetadata holds the OIDC Provider Metadata returned by the discovery endpoint.
type discoveryMetadata struct {
	Issuer                           string   `json:"issuer"`
	AuthorizationEndpoint            string   `json:"authorization_endpoint"`
	TokenEndpoint                    string   `json:"token_endpoint"`
	UserinfoEndpoint                 string   `json:"userinfo_endpoint"`
	RevocationEndpoint               string   `json:"revocation_endpoint"`
	EndSessionEndpoint               string   `json:"end_session_endpoint"`
	ResponseTypesSupported           []string `json:"response_types_supported"`
	SubjectTypesSupported            []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                  []string `json:"scopes_supported"`
	TokenEndpointAuthMethods         []string `json:"token_endpoint_auth_methods_supported"`
	GrantTypesSupported              []string `json:"grant_types_supported"`
	ClaimsSupported                  []string `json:"claims_supported"`
}

// Discovery serves /.well-known/openid-configuration (OIDC Discovery 1.0).
func (h *OIDCHandler) Discovery(c *gin.Context) {
	scopes, err := h.scopeService.SupportedScopes(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	base := h.config.BaseURL
	c.JSON(http.StatusOK, discoveryMetadata{
		Issuer:                           base,
		AuthorizationEndpoint:            base + "/connect/authorize",
		TokenEndpoint:                    base + "/connect/token",
		UserinfoEndpoint:                 base + "/connect/userinfo",
		RevocationEndpoint:               base + "/connect/revoke",
		EndSessionEndpoint:               base + "/connect/logout",
		ResponseTypesSupported:           []string{"code"},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"HS256"},
		ScopesSupported:                  scopes,
		TokenEndpointAuthMethods:         []string{"client_secret_basic", "client_secret_post", "none"},
		GrantTypesSupported: []string{
			services.GrantTypeAuthorizationCode,
			services.GrantTypeRefreshToken,
			services.GrantTypeClientCredentials,
			services.GrantTypePassword,
		},
		ClaimsSupported: []string{
			claims.TypeSubject,
			"iss",
			claims.TypeName,
			claims.TypeEmail,
			claims.TypeEmailVerified,
			claims.TypeRole,
		},
	})
}

// UserInfo serves GET|POST /connect/userinfo behind middleware.RequireBearer.
// The response is not gated by the token's scopes.
func (h *OIDCHandler) UserInfo(c *gin.Context) {
	grant := middleware.GrantFromContext(c)
	if grant == nil {
		middleware.BearerChallenge(c, http.StatusUnauthorized,
			services.ErrorInvalidToken, services.DescInvalidAccessToken)
		return
	}

	info, err := h.sessionService.Userinfo(c.Request.Context(), grant.Subject)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
