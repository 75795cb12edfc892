package services

import "fmt"

// OAuth 2.0 / OIDC error codes.
const (
	ErrorInvalidRequest          = "invalid_request"
	ErrorInvalidClient           = "invalid_client"
	ErrorUnauthorizedClient      = "unauthorized_client"
	ErrorInvalidGrant            = "invalid_grant"
	ErrorUnsupportedGrantType    = "unsupported_grant_type"
	ErrorUnsupportedTokenType    = "unsupported_token_type"
	ErrorInvalidScope            = "invalid_scope"
	ErrorInvalidToken            = "invalid_token"
	ErrorServerError             = "server_error"
	ErrorAccessDenied            = "access_denied"
	ErrorUnsupportedResponseType = "unsupported_response_type"
)

// Denial descriptions returned to callers. The credential messages are
// shared across failure causes so they never reveal whether a username or
// client exists.
const (
	DescTokenNoLongerValid       = "The token is no longer valid."
	DescClientNotFound           = "The client application was not found."
	DescClientCredentialsDenied  = "The client is not allowed to use the client credentials grant."
	DescPasswordDenied           = "The client is not allowed to use the password grant type."
	DescAuthorizationCodeDenied  = "The client is not allowed to use the authorization code grant."
	DescRefreshTokenDenied       = "The client is not allowed to use the refresh token grant."
	DescInvalidCredentials       = "The username or password is invalid."
	DescUnsupportedGrantType     = "The specified grant type is not supported."
	DescAccountGone              = "The specified access token is bound to an account that no longer exists."
	DescTokenRequired            = "The 'token' parameter is required."
	DescUnsupportedTokenType     = "The specified token type is not supported."
	DescScopeNotGranted          = "The requested scope exceeds the scope granted by the resource owner."
	DescInvalidAccessToken       = "The specified access token is invalid."
	DescInsufficientScope        = "The specified access token does not grant the required scope."
	DescRedirectURIInvalid       = "The specified 'redirect_uri' is not valid for this client application."
	DescResponseTypeNotSupported = "The specified 'response_type' is not supported."
	DescParameterRequired        = "The mandatory '%s' parameter is missing."
	DescServerError              = "An internal error occurred while processing the request."
	DescRequestTooLarge          = "The authorization request payload is too large."
)

// Denial is an expected, client-visible failure. Every denial carries an
// OAuth error code; anything that is not a *Denial is an unexpected fault.
type Denial struct {
	Code        string
	Description string
}

func (d *Denial) Error() string {
	return d.Code + ": " + d.Description
}

func deny(code, description string) *Denial {
	return &Denial{Code: code, Description: description}
}

func missingParameter(name string) *Denial {
	return deny(ErrorInvalidRequest, fmt.Sprintf(DescParameterRequired, name))
}
