package services

import (
	"context"
	"testing"

	"github.com/go-authgate/oidcgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)

	user, err := f.sessions.Login(context.Background(), testUserName, testPassword)
	require.NoError(t, err)
	assert.Equal(t, f.seededUser(t).ID, user.ID)

	_, err = f.sessions.Login(context.Background(), testUserName, "wrong")
	denial := requireDenial(t, err, ErrorInvalidGrant)
	assert.Equal(t, DescInvalidCredentials, denial.Description)
	assert.Equal(t, 1, f.seededUser(t).AccessFailedCount)
}

func TestUserinfo(t *testing.T) {
	f := newFixture(t)
	user := f.seededUser(t)

	info, err := f.sessions.Userinfo(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, info["sub"])
	assert.Equal(t, testUserName, info["name"])
	assert.Equal(t, testUserName, info["email"])
	assert.Equal(t, true, info["email_verified"])
	assert.Equal(t, "123456", info["qicq"])
	assert.Equal(t, "admin,test", info["role"])
}

func TestUserinfo_AttributesCannotOverrideStandardClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seededUser(t)
	user.Attributes = models.StringMap{
		"qicq":           "123456",
		"email_verified": "nope",
		"sub":            "spoofed",
		"scope":          "api",
	}
	require.NoError(t, f.store.UpdateUser(ctx, user))

	info, err := f.sessions.Userinfo(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, true, info["email_verified"])
	assert.Equal(t, user.ID, info["sub"])
	assert.NotContains(t, info, "scope")
	assert.Equal(t, "123456", info["qicq"])
}

func TestUserinfo_OmitsRoleWithoutRoles(t *testing.T) {
	f := newFixture(t)
	user := f.seededUser(t)
	require.NoError(t, f.store.SetUserRoles(context.Background(), user.ID, nil))

	info, err := f.sessions.Userinfo(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotContains(t, info, "role")
}

func TestUserinfo_UnknownSubject(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.Userinfo(context.Background(), "missing")
	denial := requireDenial(t, err, ErrorInvalidToken)
	assert.Equal(t, DescAccountGone, denial.Description)
}

func TestPostLogoutRedirect(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"registered", testLogoutURI, testLogoutURI},
		{"empty", "", "/"},
		{"unregistered", "https://evil.example.com/", "/"},
		{"redirect uri is not a logout uri", testRedirectURI, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.sessions.PostLogoutRedirect(context.Background(), tt.uri))
		})
	}
}
