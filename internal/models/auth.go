package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims are the claims carried by both access and refresh tokens.
// Subject is the account email.
type TokenClaims struct {
	Type string `json:"type"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login, social login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Login outcome codes. Exactly one is produced per login evaluation.
const (
	LoginSuccess         = "SUCCESS"
	LoginFailNotFound    = "FAIL_NOT_FOUND"
	LoginFailUnverified  = "FAIL_UNVERIFIED"
	LoginFailSuspended   = "FAIL_SUSPENDED"
	LoginFailLocked      = "FAIL_LOCKED"
	LoginFailBadPassword = "FAIL_BAD_PASSWORD"
)

// VerificationStatus distinguishes a first-time activation from verifying an
// account that is already active. The latter is not an error.
type VerificationStatus int

const (
	Verified VerificationStatus = iota
	AlreadyVerified
)
