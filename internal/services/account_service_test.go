package services

import (
	"context"
	"testing"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkgauth "github.com/dohyunkim-dev/marketgate/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountService(repo *MockAccountRepository, mail *MockMailService) *AccountService {
	if mail == nil {
		mail = &MockMailService{}
	}
	return NewAccountService(repo, mail, newTestLogger(), newTestAuditLogger(), 30*time.Minute)
}

func TestRegister_CreatesUnverifiedAccountWithToken(t *testing.T) {
	var created *models.Account
	repo := &MockAccountRepository{
		CreateFunc: func(ctx context.Context, acct *models.Account) error {
			created = acct
			return nil
		},
	}

	var mailedToken string
	mail := &MockMailService{
		SendVerificationMailFunc: func(ctx context.Context, email, token string) error {
			mailedToken = token
			return nil
		},
	}

	svc := newTestAccountService(repo, mail)

	err := svc.Register(context.Background(), "new@example.com", testPassword, "New User")
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, models.StatusWaitingVerify, created.Status)
	assert.Equal(t, models.ProviderLocal, created.Provider)
	assert.Equal(t, models.RoleUser, created.Role)
	require.NotNil(t, created.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(*created.PasswordHash, testPassword))

	require.NotNil(t, created.ActionToken)
	assert.Equal(t, *created.ActionToken, mailedToken)
	require.NotNil(t, created.TokenExpireAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *created.TokenExpireAt, 2*time.Second)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &MockAccountRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*models.Account, error) {
			return NewTestAccount(email, "hash"), nil
		},
	}
	svc := newTestAccountService(repo, nil)

	err := svc.Register(context.Background(), "taken@example.com", testPassword, "Someone")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	repo := &MockAccountRepository{
		CreateFunc: func(ctx context.Context, acct *models.Account) error {
			t.Fatal("weak password must be rejected before any store write")
			return nil
		},
	}
	svc := newTestAccountService(repo, nil)

	err := svc.Register(context.Background(), "new@example.com", "short", "New User")

	var validation *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestRegister_MailFailureDoesNotFailRegistration(t *testing.T) {
	repo := &MockAccountRepository{}
	mail := &MockMailService{
		SendVerificationMailFunc: func(ctx context.Context, email, token string) error {
			return assert.AnError
		},
	}
	svc := newTestAccountService(repo, mail)

	err := svc.Register(context.Background(), "new@example.com", testPassword, "New User")
	assert.NoError(t, err)
}

func TestCheckEmail(t *testing.T) {
	repo := &MockAccountRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*models.Account, error) {
			if email == "taken@example.com" {
				return NewTestAccount(email, "hash"), nil
			}
			return nil, models.ErrNotFound
		},
	}
	svc := newTestAccountService(repo, nil)

	available, err := svc.CheckEmail(context.Background(), "free@example.com")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = svc.CheckEmail(context.Background(), "taken@example.com")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestVerifyEmail_ActivatesAccount(t *testing.T) {
	token := "verify-token"
	expireAt := time.Now().Add(10 * time.Minute)
	acct := NewTestAccountUnverified("new@example.com", "hash")
	acct.ActionToken = &token
	acct.TokenExpireAt = &expireAt

	activated := false
	repo := &MockAccountRepository{
		FindByActionTokenFunc: func(ctx context.Context, tok string) (*models.Account, error) {
			assert.Equal(t, token, tok)
			return acct, nil
		},
		ActivateFunc: func(ctx context.Context, email string) error {
			activated = true
			assert.Equal(t, "new@example.com", email)
			return nil
		},
	}
	svc := newTestAccountService(repo, nil)

	status, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.Verified, status)
	assert.True(t, activated)
}

func TestVerifyEmail_AlreadyActiveIsNotAnError(t *testing.T) {
	token := "verify-token"
	acct := NewTestAccount("user@example.com", "hash")
	acct.ActionToken = &token

	repo := &MockAccountRepository{
		FindByActionTokenFunc: func(ctx context.Context, tok string) (*models.Account, error) {
			return acct, nil
		},
		ActivateFunc: func(ctx context.Context, email string) error {
			t.Fatal("an active account must not be activated again")
			return nil
		},
	}
	svc := newTestAccountService(repo, nil)

	status, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.AlreadyVerified, status)
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	svc := newTestAccountService(&MockAccountRepository{}, nil)

	_, err := svc.VerifyEmail(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	token := "verify-token"
	expireAt := time.Now().Add(-1 * time.Minute)
	acct := NewTestAccountUnverified("new@example.com", "hash")
	acct.ActionToken = &token
	acct.TokenExpireAt = &expireAt

	repo := &MockAccountRepository{
		FindByActionTokenFunc: func(ctx context.Context, tok string) (*models.Account, error) {
			return acct, nil
		},
	}
	svc := newTestAccountService(repo, nil)

	_, err := svc.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestRequestPasswordReset_StoresTokenAndMails(t *testing.T) {
	acct := NewTestAccount("user@example.com", "hash")

	var storedToken, mailedToken string
	repo := &MockAccountRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*models.Account, error) {
			return acct, nil
		},
		SetActionTokenFunc: func(ctx context.Context, email, token string, expireAt time.Time) error {
			storedToken = token
			assert.WithinDuration(t, time.Now().Add(30*time.Minute), expireAt, 2*time.Second)
			return nil
		},
	}
	mail := &MockMailService{
		SendPasswordResetMailFunc: func(ctx context.Context, email, token string) error {
			mailedToken = token
			return nil
		},
	}
	svc := newTestAccountService(repo, mail)

	err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, storedToken)
	assert.Equal(t, storedToken, mailedToken)
}

func TestRequestPasswordReset_RefusesSocialOnlyAccount(t *testing.T) {
	acct := NewTestSocialAccount("user@example.com", models.ProviderKakao)

	repo := &MockAccountRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*models.Account, error) {
			return acct, nil
		},
		SetActionTokenFunc: func(ctx context.Context, email, token string, expireAt time.Time) error {
			t.Fatal("no reset token may be issued for a passwordless account")
			return nil
		},
	}
	svc := newTestAccountService(repo, nil)

	err := svc.RequestPasswordReset(context.Background(), "user@example.com")

	var socialOnly *models.SocialOnlyError
	require.ErrorAs(t, err, &socialOnly)
	assert.Equal(t, models.ProviderKakao, socialOnly.Provider)
}

func TestVerifyResetToken_DistinguishesInvalidAndExpired(t *testing.T) {
	token := "reset-token"
	expireAt := time.Now().Add(-1 * time.Minute)
	acct := NewTestAccount("user@example.com", "hash")
	acct.ActionToken = &token
	acct.TokenExpireAt = &expireAt

	repo := &MockAccountRepository{
		FindByActionTokenFunc: func(ctx context.Context, tok string) (*models.Account, error) {
			if tok == token {
				return acct, nil
			}
			return nil, models.ErrNotFound
		},
	}
	svc := newTestAccountService(repo, nil)

	err := svc.VerifyResetToken(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	err = svc.VerifyResetToken(context.Background(), token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestConfirmPasswordReset_ConsumesTokenOnce(t *testing.T) {
	token := "reset-token"
	expireAt := time.Now().Add(10 * time.Minute)
	acct := NewTestAccount("user@example.com", "old-hash")
	acct.ActionToken = &token
	acct.TokenExpireAt = &expireAt

	var newHash string
	repo := &MockAccountRepository{
		FindByActionTokenFunc: func(ctx context.Context, tok string) (*models.Account, error) {
			return acct, nil
		},
		ConsumeResetTokenFunc: func(ctx context.Context, tok, passwordHash string) (bool, error) {
			assert.Equal(t, token, tok)
			newHash = passwordHash
			return true, nil
		},
	}
	svc := newTestAccountService(repo, nil)

	err := svc.ConfirmPasswordReset(context.Background(), token, "NewPassword1")
	require.NoError(t, err)
	assert.NoError(t, pkgauth.ComparePassword(newHash, "NewPassword1"))
}

func TestConfirmPasswordReset_LostRaceIsInvalid(t *testing.T) {
	token := "reset-token"
	expireAt := time.Now().Add(10 * time.Minute)
	acct := NewTestAccount("user@example.com", "old-hash")
	acct.ActionToken = &token
	acct.TokenExpireAt = &expireAt

	repo := &MockAccountRepository{
		FindByActionTokenFunc: func(ctx context.Context, tok string) (*models.Account, error) {
			return acct, nil
		},
		ConsumeResetTokenFunc: func(ctx context.Context, tok, passwordHash string) (bool, error) {
			// someone else consumed it between verify and confirm
			return false, nil
		},
	}
	svc := newTestAccountService(repo, nil)

	err := svc.ConfirmPasswordReset(context.Background(), token, "NewPassword1")
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestWithdraw(t *testing.T) {
	deleted := false
	repo := &MockAccountRepository{
		DeleteFunc: func(ctx context.Context, email string) error {
			deleted = true
			assert.Equal(t, "user@example.com", email)
			return nil
		},
	}
	svc := newTestAccountService(repo, nil)

	require.NoError(t, svc.Withdraw(context.Background(), "user@example.com"))
	assert.True(t, deleted)
}

func TestWithdraw_UnknownAccount(t *testing.T) {
	repo := &MockAccountRepository{
		DeleteFunc: func(ctx context.Context, email string) error {
			return models.ErrNotFound
		},
	}
	svc := newTestAccountService(repo, nil)

	err := svc.Withdraw(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
