package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/models"

	"go.uber.org/zap"
)

// verifyPassword checks a username and password and keeps the lockout
// bookkeeping. Unknown user, active lockout and wrong password all return
// the same denial. Lockout updates are best-effort and only logged.
func verifyPassword(
	ctx context.Context,
	users core.UserStore,
	log *zap.SugaredLogger,
	now time.Time,
	username, password string,
) (*models.User, error) {
	if username == "" {
		return nil, missingParameter("username")
	}
	if password == "" {
		return nil, missingParameter("password")
	}

	invalid := deny(ErrorInvalidGrant, DescInvalidCredentials)

	user, err := users.FindByName(ctx, username)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	if user.IsLockedOut(now) {
		return nil, invalid
	}

	if !users.CheckPassword(user, password) {
		if err := users.IncrementLockout(ctx, user); err != nil {
			log.Warnw("failed to record failed password attempt", "user_id", user.ID, "error", err)
		}
		return nil, invalid
	}

	if err := users.ResetLockout(ctx, user); err != nil {
		log.Warnw("failed to reset failed password attempts", "user_id", user.ID, "error", err)
	}
	return user, nil
}
