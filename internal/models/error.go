package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// ErrTokenInvalid covers signature mismatch, malformed structure and
	// cryptographic expiry. Callers must not be able to tell these apart.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenReused signals that a refresh token other than the stored one
	// was presented. The session has been terminated.
	ErrTokenReused = errors.New("refresh token reuse detected")

	// ErrTokenExpired is for verification/reset tokens past their window.
	// Distinct from ErrTokenInvalid so the caller can ask the user to retry.
	ErrTokenExpired = errors.New("token has expired")
)

// Block reasons for login denial by account state.
const (
	BlockUnverified = "unverified"
	BlockSuspended  = "suspended"
	BlockLocked     = "locked"
)

// AccountBlockedError denies login because of account state. Reason is one of
// the Block* constants; the remaining fields carry user-facing detail.
type AccountBlockedError struct {
	Reason        string
	SuspendUntil  *time.Time // nil for indefinite suspension
	SuspendReason string
	LockRemaining time.Duration
}

func (e *AccountBlockedError) Error() string {
	switch e.Reason {
	case BlockUnverified:
		return "account email is not verified"
	case BlockSuspended:
		if e.SuspendUntil == nil {
			return "account is suspended indefinitely"
		}
		return fmt.Sprintf("account is suspended until %s", e.SuspendUntil.Format(time.RFC3339))
	case BlockLocked:
		return fmt.Sprintf("account is locked, retry in %d seconds", int(e.LockRemaining.Seconds()))
	}
	return "account is blocked"
}

// Outcome maps the block reason to a login outcome code.
func (e *AccountBlockedError) Outcome() string {
	switch e.Reason {
	case BlockUnverified:
		return LoginFailUnverified
	case BlockSuspended:
		return LoginFailSuspended
	default:
		return LoginFailLocked
	}
}

// InvalidCredentialError reports a wrong password together with how many
// attempts remain before the account locks.
type InvalidCredentialError struct {
	Remaining int
}

func (e *InvalidCredentialError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.Remaining)
}

// SocialOnlyError refuses a password operation on a provider-authenticated
// account that has no password.
type SocialOnlyError struct {
	Provider string
}

func (e *SocialOnlyError) Error() string {
	return fmt.Sprintf("account was registered through %s and has no password", e.Provider)
}
