package services

import (
	"context"
	"fmt"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/store"
)

// Compile-time interface check.
var _ core.ResourceResolver = (*ScopeService)(nil)

// ScopeService resolves scopes to resource servers.
type ScopeService struct {
	store   *store.Store
	metrics metrics.Recorder
}

func NewScopeService(s *store.Store, m metrics.Recorder) *ScopeService {
	return &ScopeService{store: s, metrics: m}
}

func (s *ScopeService) ListResources(ctx context.Context, scopes []string) ([]string, error) {
	resources, err := s.store.ListResourcesByScopes(ctx, scopes)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_resources")
		return nil, fmt.Errorf("list_resources: %w", err)
	}
	return resources, nil
}

// SupportedScopes lists the standard scopes followed by every registered one.
func (s *ScopeService) SupportedScopes(ctx context.Context) ([]string, error) {
	registered, err := s.store.ListScopes(ctx)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_scopes")
		return nil, fmt.Errorf("list_scopes: %w", err)
	}
	names := []string{claims.ScopeOpenID, claims.ScopeOfflineAccess}
	for _, scope := range registered {
		names = append(names, scope.Name)
	}
	return claims.ParseScopes(claims.FormatScopes(names)), nil
}
