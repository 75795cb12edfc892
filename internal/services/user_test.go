package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_FindByName(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.FindByName(context.Background(), testUserName)
	require.NoError(t, err)
	assert.Equal(t, testUserName, user.UserName)

	_, err = f.users.FindByName(context.Background(), "nobody")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	_, err = f.users.FindByID(context.Background(), "nobody")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestUserService_LockoutThreshold(t *testing.T) {
	s := setupTestStore(t)
	svc := NewUserService(s, LockoutPolicy{MaxFailedAttempts: 3, Duration: time.Minute}, metrics.NewNoopMetrics())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user, err := svc.FindByName(context.Background(), testUserName)
	require.NoError(t, err)

	for i := 1; i < 3; i++ {
		require.NoError(t, svc.IncrementLockout(context.Background(), user))
		assert.Equal(t, i, user.AccessFailedCount)
		assert.False(t, user.IsLockedOut(now))
	}

	require.NoError(t, svc.IncrementLockout(context.Background(), user))
	assert.Equal(t, 0, user.AccessFailedCount)
	assert.True(t, user.IsLockedOut(now))

	now = now.Add(2 * time.Minute)
	assert.False(t, user.IsLockedOut(now))

	stored, err := svc.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockoutEnd)
}

func TestUserService_LockoutDisabledForUser(t *testing.T) {
	s := setupTestStore(t)
	svc := NewUserService(s, LockoutPolicy{MaxFailedAttempts: 1, Duration: time.Minute}, metrics.NewNoopMetrics())

	user, err := svc.FindByName(context.Background(), testUserName)
	require.NoError(t, err)
	user.LockoutEnabled = false

	require.NoError(t, svc.IncrementLockout(context.Background(), user))
	assert.Nil(t, user.LockoutEnd)
	assert.Equal(t, 1, user.AccessFailedCount)
}

func TestClientService(t *testing.T) {
	f := newFixture(t)

	app, err := f.clients.FindByClientID(context.Background(), testClientID)
	require.NoError(t, err)
	assert.True(t, f.clients.ValidateClientSecret(app, testClientSecret))
	assert.False(t, f.clients.ValidateClientSecret(app, "nope"))
	assert.True(t, f.clients.HasPermission(app, "gt:password"))

	_, err = f.clients.FindByClientID(context.Background(), "unknown")
	assert.ErrorIs(t, err, core.ErrApplicationNotFound)
}

func TestScopeService_SupportedScopes(t *testing.T) {
	f := newFixture(t)

	scopes, err := f.scopes.SupportedScopes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"openid", "offline_access", "api", "email", "profile", "roles"}, scopes)

	resources, err := f.scopes.ListResources(context.Background(), []string{"api", "email"})
	require.NoError(t, err)
	assert.Equal(t, []string{"content_service"}, resources)
}
