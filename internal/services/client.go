package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/models"
	"github.com/go-authgate/oidcgate/internal/store"
)

// Compile-time interface check.
var _ core.ApplicationRegistry = (*ClientService)(nil)

// ClientService is the read-only application registry.
type ClientService struct {
	store   *store.Store
	metrics metrics.Recorder
}

func NewClientService(s *store.Store, m metrics.Recorder) *ClientService {
	return &ClientService{store: s, metrics: m}
}

func (s *ClientService) FindByClientID(ctx context.Context, clientID string) (*models.Application, error) {
	app, err := s.store.GetApplicationByClientID(ctx, clientID)
	if err == nil {
		return app, nil
	}
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, core.ErrApplicationNotFound
	}
	s.metrics.RecordDatabaseQueryError("find_application")
	return nil, fmt.Errorf("find_application: %w", err)
}

func (s *ClientService) HasPermission(app *models.Application, permission string) bool {
	return app.HasPermission(permission)
}

// ValidateClientSecret accepts public clients without a secret and
// requires a matching secret from confidential ones.
func (s *ClientService) ValidateClientSecret(app *models.Application, secret string) bool {
	if !app.IsConfidential() {
		return true
	}
	return app.ValidateClientSecret([]byte(secret))
}

// IsPostLogoutRedirectURIRegistered reports whether any application lists uri
// as a post-logout redirect target.
func (s *ClientService) IsPostLogoutRedirectURIRegistered(ctx context.Context, uri string) (bool, error) {
	if uri == "" {
		return false, nil
	}
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_applications")
		return false, fmt.Errorf("list_applications: %w", err)
	}
	for i := range apps {
		if apps[i].HasPostLogoutRedirectURI(uri) {
			return true, nil
		}
	}
	return false, nil
}
