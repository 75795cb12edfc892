package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/models"
	"github.com/go-authgate/oidcgate/internal/store"
)

// Compile-time interface check.
var _ core.UserStore = (*UserService)(nil)

// LockoutPolicy controls the failed-password lockout.
type LockoutPolicy struct {
	MaxFailedAttempts int
	Duration          time.Duration
}

type UserService struct {
	store   *store.Store
	lockout LockoutPolicy
	metrics metrics.Recorder
	now     func() time.Time
}

func NewUserService(s *store.Store, lockout LockoutPolicy, m metrics.Recorder) *UserService {
	return &UserService{
		store:   s,
		lockout: lockout,
		metrics: m,
		now:     time.Now,
	}
}

func (s *UserService) FindByName(ctx context.Context, name string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, name)
	return s.userOrError(user, err, "find_user_by_name")
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	return s.userOrError(user, err, "find_user_by_id")
}

func (s *UserService) userOrError(user *models.User, err error, operation string) (*models.User, error) {
	if err == nil {
		return user, nil
	}
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, core.ErrUserNotFound
	}
	s.metrics.RecordDatabaseQueryError(operation)
	return nil, fmt.Errorf("%s: %w", operation, err)
}

func (s *UserService) CheckPassword(user *models.User, password string) bool {
	return user.CheckPassword(password)
}

func (s *UserService) GetRoles(ctx context.Context, user *models.User) ([]string, error) {
	roles, err := s.store.GetUserRoles(ctx, user.ID)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("get_user_roles")
		return nil, fmt.Errorf("get_user_roles: %w", err)
	}
	return roles, nil
}

// IncrementLockout records a failed password attempt. Reaching the
// threshold starts a lockout window and resets the counter.
func (s *UserService) IncrementLockout(ctx context.Context, user *models.User) error {
	user.AccessFailedCount++
	s.metrics.RecordLockout("failure")

	if user.LockoutEnabled && s.lockout.MaxFailedAttempts > 0 &&
		user.AccessFailedCount >= s.lockout.MaxFailedAttempts {
		end := s.now().Add(s.lockout.Duration)
		user.LockoutEnd = &end
		user.AccessFailedCount = 0
		s.metrics.RecordLockout("locked")
	}

	if err := s.store.UpdateUserLockout(ctx, user); err != nil {
		s.metrics.RecordDatabaseQueryError("update_lockout")
		return fmt.Errorf("update_lockout: %w", err)
	}
	return nil
}

// ResetLockout clears the failed attempt counter after a successful login.
func (s *UserService) ResetLockout(ctx context.Context, user *models.User) error {
	if user.AccessFailedCount == 0 {
		return nil
	}
	user.AccessFailedCount = 0
	s.metrics.RecordLockout("reset")

	if err := s.store.UpdateUserLockout(ctx, user); err != nil {
		s.metrics.RecordDatabaseQueryError("update_lockout")
		return fmt.Errorf("update_lockout: %w", err)
	}
	return nil
}
