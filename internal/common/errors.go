// Package common defines shared constants and sentinel errors used across
// client and server layers of Pennywise. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable means the local database could not be opened or
	// used; the client degrades to a disabled mode until it clears.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists covers uniqueness violations, e.g. creating a
	// subcategory that already exists.
	ErrAlreadyExists = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
