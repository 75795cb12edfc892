package bootstrap

import (
	"errors"
	"fmt"

	"github.com/go-authgate/oidcgate/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateSessionConfig(cfg); err != nil {
		return fmt.Errorf("invalid session configuration: %w", err)
	}
	if err := validateLockoutConfig(cfg); err != nil {
		return fmt.Errorf("invalid lockout configuration: %w", err)
	}
	return nil
}

// validateSessionConfig checks the login cookie settings
func validateSessionConfig(cfg *config.Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if cfg.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive, got %d", cfg.SessionMaxAge)
	}
	return nil
}

// validateLockoutConfig checks the password lockout policy. Zero attempts
// disables lockout.
func validateLockoutConfig(cfg *config.Config) error {
	if cfg.LockoutMaxFailedAttempts < 0 {
		return fmt.Errorf(
			"LOCKOUT_MAX_FAILED_ATTEMPTS must not be negative, got %d",
			cfg.LockoutMaxFailedAttempts,
		)
	}
	if cfg.LockoutMaxFailedAttempts > 0 && cfg.LockoutDuration <= 0 {
		return errors.New("LOCKOUT_DURATION must be positive when lockout is enabled")
	}
	return nil
}
