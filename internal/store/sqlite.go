package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/models"
	"github.com/go-authgate/oidcgate/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(ctx context.Context, driver, dsn string, cfg *config.Config, log *zap.SugaredLogger) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(log),
	})
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: opens its own empty database
	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	// Auto migrate
	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.Application{},
		&models.Scope{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db, log: log}

	if cfg != nil && cfg.SeedDefaultData {
		if err := store.seedData(ctx, cfg); err != nil {
			log.Warnw("failed to seed data", "error", err)
		}
	}

	return store, nil
}

func (s *Store) seedData(ctx context.Context, cfg *config.Config) error {
	db := s.db.WithContext(ctx)

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
		password := strings.TrimSpace(cfg.DefaultPassword)
		generated := false
		if password == "" {
			var err error
			if password, err = util.CryptoRandomString(16); err != nil {
				return err
			}
			generated = true
		}

		user := &models.User{
			ID:             uuid.New().String(),
			UserName:       cfg.DefaultUser,
			Email:          cfg.DefaultUser,
			EmailConfirmed: true,
			Attributes:     models.StringMap{"qicq": "123456"},
			LockoutEnabled: true,
		}
		if err := user.SetPassword(password); err != nil {
			return err
		}
		if err := s.CreateUser(ctx, user); err != nil {
			return err
		}
		if err := s.SetUserRoles(ctx, user.ID, []string{"admin", "test"}); err != nil {
			return err
		}
		if generated {
			s.log.Infow("created default user", "username", user.UserName, "password", password)
		} else {
			s.log.Infow("created default user", "username", user.UserName)
		}
	}

	if _, err := s.GetApplicationByClientID(ctx, cfg.DefaultClientID); errors.Is(err, ErrRecordNotFound) {
		app := &models.Application{
			ClientID:    cfg.DefaultClientID,
			DisplayName: "OidcClient测试应用",
			ClientType:  models.ClientTypeConfidential,
			Permissions: models.StringArray{
				models.GrantTypePermission("authorization_code"),
				models.GrantTypePermission("refresh_token"),
				models.GrantTypePermission("client_credentials"),
				models.GrantTypePermission("password"),
			},
			RedirectURIs:           models.StringArray{cfg.DefaultRedirectURI},
			PostLogoutRedirectURIs: models.StringArray{cfg.DefaultPostLogoutRedirectURI},
		}
		if err := app.SetClientSecret(cfg.DefaultClientSecret); err != nil {
			return err
		}
		if err := s.CreateApplication(ctx, app); err != nil {
			return err
		}
		s.log.Infow("created default application", "client_id", app.ClientID, "name", app.DisplayName)
	} else if err != nil {
		return err
	}

	defaults := []models.Scope{
		{Name: claims.ScopeEmail, Description: "Email address"},
		{Name: claims.ScopeProfile, Description: "Basic profile"},
		{Name: claims.ScopeRoles, Description: "Role membership"},
		{Name: "api", Description: "Content service API", Resources: models.StringArray{"content_service"}},
	}
	for i := range defaults {
		var count int64
		if err := db.Model(&models.Scope{}).Where("name = ?", defaults[i].Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := s.CreateScope(ctx, &defaults[i]); err != nil {
			return err
		}
	}

	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// User operations

// GetUserByUsername matches the username case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(user_name) = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(user_name) = ?", strings.ToLower(user.UserName)).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameConflict
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// UpdateUserLockout writes only the lockout columns so a concurrent profile
// edit is not overwritten.
func (s *Store) UpdateUserLockout(ctx context.Context, user *models.User) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Select("access_failed_count", "lockout_end").
		Updates(map[string]any{
			"access_failed_count": user.AccessFailedCount,
			"lockout_end":         user.LockoutEnd,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.User{}).Error
	})
}

// GetUserRoles returns role names in assignment order.
func (s *Store) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	var roles []string
	err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Order("id").
		Pluck("role", &roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// SetUserRoles replaces every role of the user.
func (s *Store) SetUserRoles(ctx context.Context, userID string, roles []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		for _, role := range claims.SplitRoles(strings.Join(roles, claims.RoleSeparator)) {
			if err := tx.Create(&models.UserRole{UserID: userID, Role: role}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Application operations

func (s *Store) GetApplicationByClientID(ctx context.Context, clientID string) (*models.Application, error) {
	var app models.Application
	if err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&app).Error; err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (s *Store) ListApplications(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	if err := s.db.WithContext(ctx).Order("id").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	return s.db.WithContext(ctx).Create(app).Error
}

func (s *Store) UpdateApplication(ctx context.Context, app *models.Application) error {
	return s.db.WithContext(ctx).Save(app).Error
}

// Scope operations

func (s *Store) CreateScope(ctx context.Context, scope *models.Scope) error {
	return s.db.WithContext(ctx).Create(scope).Error
}

func (s *Store) ListScopes(ctx context.Context) ([]models.Scope, error) {
	var scopes []models.Scope
	if err := s.db.WithContext(ctx).Order("name").Find(&scopes).Error; err != nil {
		return nil, err
	}
	return scopes, nil
}

// ListResourcesByScopes returns the distinct resources registered for the named scopes.
func (s *Store) ListResourcesByScopes(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var scopes []models.Scope
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Order("name").Find(&scopes).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var resources []string
	for _, scope := range scopes {
		for _, r := range scope.Resources {
			if r == "" || seen[r] {
				continue
			}
			seen[r] = true
			resources = append(resources, r)
		}
	}
	return resources, nil
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	done := make(chan error, 1)
	go func() { done <- sqlDB.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
