package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrRevokedToken indicates the token id is on the revocation list
	ErrRevokedToken = errors.New("token revoked")

	// ErrTokenReused indicates a single-use token was presented twice
	ErrTokenReused = errors.New("token reuse detected")

	// ErrClientMismatch indicates the token was issued to another client
	ErrClientMismatch = errors.New("token issued to a different client")

	// ErrScopeNotGranted indicates a refresh asked for a scope outside the original grant
	ErrScopeNotGranted = errors.New("scope not granted")

	// ErrRevocationUnavailable indicates the revocation list could not be consulted
	ErrRevocationUnavailable = errors.New("revocation list unavailable")
)
