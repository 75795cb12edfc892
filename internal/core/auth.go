package core

import (
	"context"
	"errors"

	"github.com/go-authgate/oidcgate/internal/models"
)

var (
	// ErrUserNotFound is returned by UserStore lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrApplicationNotFound is returned by ApplicationRegistry lookups that match nothing.
	ErrApplicationNotFound = errors.New("application not found")
)

// UserStore is the user-credential store consulted by the grant paths.
type UserStore interface {
	FindByName(ctx context.Context, name string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
	GetRoles(ctx context.Context, user *models.User) ([]string, error)

	// IncrementLockout and ResetLockout are best-effort; concurrent logins
	// for the same user may race.
	IncrementLockout(ctx context.Context, user *models.User) error
	ResetLockout(ctx context.Context, user *models.User) error
}

// ApplicationRegistry resolves registered client applications. Read only.
type ApplicationRegistry interface {
	FindByClientID(ctx context.Context, clientID string) (*models.Application, error)
	HasPermission(app *models.Application, permission string) bool
	ValidateClientSecret(app *models.Application, secret string) bool
}

// ResourceResolver maps granted scopes to the resource servers they unlock.
type ResourceResolver interface {
	ListResources(ctx context.Context, scopes []string) ([]string, error)
}
