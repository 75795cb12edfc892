package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/oidcgate/internal/cache"
)

const revokedKeyPrefix = "revoked:"

// Revoke puts the token id on the revocation list until the token expires.
// Tokens that fail verification or already expired are ignored, so revoking
// twice is harmless. The returned kind is empty when nothing was recorded.
func (i *Issuer) Revoke(ctx context.Context, tokenString string) (string, error) {
	grant, err := i.parse(tokenString, "")
	if err != nil {
		return "", nil
	}
	ttl := grant.ExpiresAt.Sub(i.now())
	if ttl <= 0 {
		return "", nil
	}
	if err := i.revocations.Set(ctx, revokedKeyPrefix+grant.ID, true, ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return grant.Type, nil
}

// IsRevoked reports whether the token id is on the revocation list.
func (i *Issuer) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := i.revocations.Get(ctx, revokedKeyPrefix+jti)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, cache.ErrCacheMiss):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
}

func (i *Issuer) ensureNotRevoked(ctx context.Context, grant *Grant) error {
	revoked, err := i.IsRevoked(ctx, grant.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrRevokedToken
	}
	return nil
}

// consume claims a single-use token. Losing the race, or presenting a
// revoked token, yields ErrTokenReused.
func (i *Issuer) consume(ctx context.Context, grant *Grant) error {
	ttl := max(grant.ExpiresAt.Sub(i.now()), time.Second)
	stored, err := i.revocations.SetNX(ctx, revokedKeyPrefix+grant.ID, true, ttl)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	if !stored {
		return ErrTokenReused
	}
	return nil
}
