// Package common defines shared constants and sentinel errors used across
// the shopauth server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")

	// Service-level errors crossing the HTTP boundary.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrBadRequest          = errors.New("bad request")
	ErrorInternal          = errors.New("internal error")

	// Token codec failures. They never leave the server as-is.
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature mismatch")
)
