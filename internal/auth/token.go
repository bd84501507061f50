package auth

import (
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies the signed access and refresh tokens.
// Tokens are a pure function of the secret and the claims; access tokens are
// never persisted, refresh tokens are stored on the account by the caller.
type TokenManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewTokenManager creates a new TokenManager. The secret is process-wide
// read-only configuration loaded once at startup.
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// IssueAccessToken creates a short-lived bearer token for the account.
func (tm *TokenManager) IssueAccessToken(email, role string) (string, error) {
	return tm.sign(models.TokenTypeAccess, email, role, tm.accessTokenExpiry)
}

// IssueRefreshToken creates the longer-lived token exchanged during rotation.
func (tm *TokenManager) IssueRefreshToken(email, role string) (string, error) {
	return tm.sign(models.TokenTypeRefresh, email, role, tm.refreshTokenExpiry)
}

func (tm *TokenManager) sign(tokenType, email, role string, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		Type: tokenType,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", models.ErrInternalServer
	}

	return tokenString, nil
}

// Verify checks signature, structure and expiry. All failure modes collapse
// into models.ErrTokenInvalid so callers cannot distinguish a forged token
// from an expired one.
func (tm *TokenManager) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	if claims.Type == "" || claims.Subject == "" {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}
