package models

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	StatusWaitingVerify = "WAITING_VERIFY"
	StatusActive        = "ACTIVE"

	ProviderLocal  = "LOCAL"
	ProviderKakao  = "KAKAO"
	ProviderNaver  = "NAVER"
	ProviderGoogle = "GOOGLE"
)

// Account is the single source of truth for login eligibility and session state.
// Email is the identity and is stored exactly as given (trimmed, case preserved).
type Account struct {
	Email          string
	PasswordHash   *string // nil for accounts created through a social provider
	FullName       string
	Provider       string
	Role           string // "USER" or "ADMIN"
	Status         string // "WAITING_VERIFY" or "ACTIVE"
	IsSuspended    bool
	SuspendUntil   *time.Time // nil while suspended means indefinite suspension
	SuspendReason  *string
	LoginFailCount int
	LockUntil      *time.Time // set only when LoginFailCount reached the threshold
	RefreshToken   *string    // at most one live value per account
	ActionToken    *string    // single-use verification or password-reset token
	TokenExpireAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword reports whether the account can authenticate with a password.
// Social-only accounts have none and must be refused by password reset.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// SocialIdentity is an already-normalized identity produced by an external
// OAuth exchange step. The core performs no provider calls itself.
type SocialIdentity struct {
	Email       string
	DisplayName string
	Provider    string
}
