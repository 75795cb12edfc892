package services

import (
	"context"
	"errors"
	"testing"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/logger"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatch_PasswordGrant(t *testing.T) {
	f := newFixture(t)
	user := f.seededUser(t)

	principal, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType:    GrantTypePassword,
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Username:     testUserName,
		Password:     testPassword,
		Scopes:       []string{"openid", "api"},
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, principal.Subject)
	assert.Equal(t, []string{"admin", "test"}, principal.Roles())
	assert.Equal(t, []string{"openid", "api"}, principal.Scopes)
	assert.Equal(t, []string{"content_service"}, principal.Resources)
	assert.Equal(t, "123456", principal.Project(claims.AccessToken)["qicq"])

	var roleClaims int
	for _, c := range principal.Claims {
		assert.NotZero(t, c.Destinations, "claim %s has no destination", c.Type)
		if c.Kind == claims.KindRole {
			roleClaims++
			assert.True(t, c.Destinations.Has(claims.AccessToken))
			assert.False(t, c.Destinations.Has(claims.IdentityToken))
		}
	}
	assert.Equal(t, 2, roleClaims)
}

func TestDispatch_LogsProjectedDestinations(t *testing.T) {
	f := newFixture(t)
	observed, logs := observer.New(zap.DebugLevel)
	f.dispatcher.log = zap.New(observed).Sugar()

	_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType:    GrantTypePassword,
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Username:     testUserName,
		Password:     testPassword,
		Scopes:       []string{"openid", "profile"},
	})
	require.NoError(t, err)

	byType := map[any]any{}
	kinds := map[any]any{}
	for _, entry := range logs.FilterMessage("claim projected").AllUntimed() {
		fields := entry.ContextMap()
		byType[fields["type"]] = fields["destinations"]
		kinds[fields["type"]] = fields["kind"]
	}
	assert.Equal(t, []any{"access_token", "id_token"}, byType["name"])
	assert.Equal(t, []any{"access_token"}, byType["email"])
	assert.Equal(t, []any{"access_token"}, byType["qicq"])
	assert.Equal(t, "custom", kinds["qicq"])
	assert.Equal(t, "role", kinds["role"])
}

func TestDispatch_PasswordGrantWithoutClient(t *testing.T) {
	f := newFixture(t)

	principal, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword,
		Username:  "VIPWAN@sina.com",
		Password:  testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, f.seededUser(t).ID, principal.Subject)
}

func TestDispatch_PasswordDenialsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)

	_, unknownErr := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword,
		Username:  "nobody@example.com",
		Password:  testPassword,
	})
	_, wrongErr := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword,
		Username:  testUserName,
		Password:  "wrong",
	})

	unknown := requireDenial(t, unknownErr, ErrorInvalidGrant)
	wrong := requireDenial(t, wrongErr, ErrorInvalidGrant)
	assert.Equal(t, unknown.Description, wrong.Description)
	assert.Equal(t, DescInvalidCredentials, wrong.Description)
}

func TestDispatch_WrongPasswordIncrementsLockoutOnce(t *testing.T) {
	f := newFixture(t)
	before := f.seededUser(t).AccessFailedCount

	_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword,
		Username:  testUserName,
		Password:  "wrong",
	})
	requireDenial(t, err, ErrorInvalidGrant)

	assert.Equal(t, before+1, f.seededUser(t).AccessFailedCount)
}

func TestDispatch_LockedOutUser(t *testing.T) {
	f := newFixture(t)
	req := GrantRequest{GrantType: GrantTypePassword, Username: testUserName, Password: "wrong"}

	for i := 0; i < 5; i++ {
		_, err := f.dispatcher.Dispatch(context.Background(), req)
		requireDenial(t, err, ErrorInvalidGrant)
	}
	user := f.seededUser(t)
	require.NotNil(t, user.LockoutEnd)
	assert.Equal(t, 0, user.AccessFailedCount)

	// The correct password is refused while the lockout lasts.
	req.Password = testPassword
	_, err := f.dispatcher.Dispatch(context.Background(), req)
	denial := requireDenial(t, err, ErrorInvalidGrant)
	assert.Equal(t, DescInvalidCredentials, denial.Description)
}

func TestDispatch_SuccessfulPasswordResetsLockout(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword, Username: testUserName, Password: "wrong",
	})
	requireDenial(t, err, ErrorInvalidGrant)
	require.Equal(t, 1, f.seededUser(t).AccessFailedCount)

	_, err = f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword, Username: testUserName, Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.seededUser(t).AccessFailedCount)
}

func TestDispatch_PasswordMissingParameters(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword, Password: testPassword,
	})
	denial := requireDenial(t, err, ErrorInvalidRequest)
	assert.Contains(t, denial.Description, "'username'")

	_, err = f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword, Username: testUserName,
	})
	denial = requireDenial(t, err, ErrorInvalidRequest)
	assert.Contains(t, denial.Description, "'password'")
}

func TestDispatch_PasswordClientWithoutPermission(t *testing.T) {
	f := newFixture(t)
	f.createApp(t, "machine", models.ClientTypeConfidential, GrantTypeClientCredentials)

	_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType:    GrantTypePassword,
		ClientID:     "machine",
		ClientSecret: "machine-secret",
		Username:     testUserName,
		Password:     testPassword,
	})
	denial := requireDenial(t, err, ErrorUnauthorizedClient)
	assert.Equal(t, DescPasswordDenied, denial.Description)
}

func TestDispatch_ClientCredentials(t *testing.T) {
	f := newFixture(t)

	principal, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType:    GrantTypeClientCredentials,
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Scopes:       []string{"api"},
	})
	require.NoError(t, err)

	assert.Equal(t, testClientID, principal.Subject)
	assert.Equal(t, "OidcClient测试应用", principal.Value(claims.KindName))
	assert.Empty(t, principal.Roles())
	assert.Equal(t, []string{"content_service"}, principal.Resources)
}

func TestDispatch_ClientCredentialsDenials(t *testing.T) {
	f := newFixture(t)
	f.createApp(t, "interactive", models.ClientTypeConfidential, GrantTypeAuthorizationCode)

	tests := []struct {
		name        string
		clientID    string
		secret      string
		code        string
		description string
	}{
		{"empty client id", "", "", ErrorInvalidClient, DescClientNotFound},
		{"unknown client", "unknown", "whatever", ErrorInvalidClient, DescClientNotFound},
		{"wrong secret", testClientID, "wrong", ErrorInvalidClient, DescClientNotFound},
		{"missing secret", testClientID, "", ErrorInvalidClient, DescClientNotFound},
		{"no permission", "interactive", "interactive-secret", ErrorUnauthorizedClient, DescClientCredentialsDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
				GrantType:    GrantTypeClientCredentials,
				ClientID:     tt.clientID,
				ClientSecret: tt.secret,
			})
			denial := requireDenial(t, err, tt.code)
			assert.Equal(t, tt.description, denial.Description)
		})
	}
}

func TestDispatch_PublicClientNeedsNoSecret(t *testing.T) {
	f := newFixture(t)
	f.createApp(t, "spa", models.ClientTypePublic, GrantTypeClientCredentials)

	principal, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypeClientCredentials,
		ClientID:  "spa",
	})
	require.NoError(t, err)
	assert.Equal(t, "spa", principal.Subject)
}

func TestDispatch_UpstreamGrants(t *testing.T) {
	f := newFixture(t)
	user := f.seededUser(t)

	for _, grantType := range []string{GrantTypeAuthorizationCode, GrantTypeRefreshToken} {
		t.Run(grantType, func(t *testing.T) {
			upstream := &claims.Principal{Subject: user.ID}
			upstream.SetScopes([]string{"openid", "profile", "roles"})

			principal, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
				GrantType: grantType,
				Upstream:  upstream,
			})
			require.NoError(t, err)

			assert.Equal(t, user.ID, principal.Subject)
			assert.Equal(t, []string{"openid", "profile", "roles"}, principal.Scopes)
			assert.Equal(t, testUserName, principal.Value(claims.KindEmail))

			id := principal.Project(claims.IdentityToken)
			assert.Equal(t, user.ID, id["sub"])
			assert.Equal(t, testUserName, id["name"])
			assert.Equal(t, "admin,test", id["role"])
			assert.NotContains(t, id, "email")
		})
	}
}

func TestDispatch_UpstreamDenials(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{GrantType: GrantTypeAuthorizationCode})
	denial := requireDenial(t, err, ErrorInvalidGrant)
	assert.Equal(t, DescTokenNoLongerValid, denial.Description)

	_, err = f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypeRefreshToken,
		Upstream:  &claims.Principal{Subject: "deleted-user"},
	})
	denial = requireDenial(t, err, ErrorInvalidGrant)
	assert.Equal(t, DescTokenNoLongerValid, denial.Description)
}

func TestDispatch_RefreshScopeNarrowing(t *testing.T) {
	f := newFixture(t)
	upstream := &claims.Principal{Subject: f.seededUser(t).ID}
	upstream.SetScopes([]string{"openid", "api", "offline_access"})

	principal, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypeRefreshToken,
		Upstream:  upstream,
		Scopes:    []string{"openid"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"openid"}, principal.Scopes)
	assert.Empty(t, principal.Resources)

	_, err = f.dispatcher.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypeRefreshToken,
		Upstream:  upstream,
		Scopes:    []string{"openid", "roles"},
	})
	requireDenial(t, err, ErrorInvalidScope)
}

func TestDispatch_UnsupportedGrantType(t *testing.T) {
	f := newFixture(t)

	for _, grantType := range []string{"", "urn:ietf:params:oauth:grant-type:device_code", "implicit"} {
		_, err := f.dispatcher.Dispatch(context.Background(), GrantRequest{GrantType: grantType})
		denial := requireDenial(t, err, ErrorUnsupportedGrantType)
		assert.Equal(t, DescUnsupportedGrantType, denial.Description)
	}
}

// failingUsers simulates an unavailable user store.
type failingUsers struct{}

var errStoreDown = errors.New("store down")

func (failingUsers) FindByName(context.Context, string) (*models.User, error) { return nil, errStoreDown }
func (failingUsers) FindByID(context.Context, string) (*models.User, error)   { return nil, errStoreDown }
func (failingUsers) CheckPassword(*models.User, string) bool                  { return false }
func (failingUsers) GetRoles(context.Context, *models.User) ([]string, error) { return nil, errStoreDown }
func (failingUsers) IncrementLockout(context.Context, *models.User) error     { return errStoreDown }
func (failingUsers) ResetLockout(context.Context, *models.User) error         { return errStoreDown }

var _ core.UserStore = failingUsers{}

func TestDispatch_StoreFailureIsNotADenial(t *testing.T) {
	f := newFixture(t)
	d := NewGrantDispatcher(failingUsers{}, f.clients, f.scopes, metrics.NewNoopMetrics(), logger.Nop())

	_, err := d.Dispatch(context.Background(), GrantRequest{
		GrantType: GrantTypePassword,
		Username:  testUserName,
		Password:  testPassword,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)

	var denial *Denial
	assert.False(t, errors.As(err, &denial))
}
