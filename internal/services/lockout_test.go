package services

import (
	"context"
	"testing"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLockoutPolicy(repo AccountRepository) *LockoutPolicy {
	return NewLockoutPolicy(repo, LockoutConfig{
		MaxFail:      5,
		LockDuration: 30 * time.Second,
	}, newTestLogger())
}

func TestLockoutOnFailure_IncrementsBelowThreshold(t *testing.T) {
	var gotCount int
	repo := &MockAccountRepository{
		UpdateFailCountFunc: func(ctx context.Context, email string, count int) error {
			gotCount = count
			return nil
		},
		SetLockFunc: func(ctx context.Context, email string, count int, until time.Time) error {
			t.Fatal("lock should not be set below the threshold")
			return nil
		},
	}

	policy := newTestLockoutPolicy(repo)
	acct := NewTestAccount("user@example.com", "hash")
	acct.LoginFailCount = 2

	result, err := policy.OnFailure(context.Background(), acct)
	require.NoError(t, err)

	assert.Equal(t, 3, gotCount)
	assert.Equal(t, 3, result.FailCount)
	assert.Equal(t, 2, result.Remaining)
	assert.Nil(t, result.LockUntil)
}

func TestLockoutOnFailure_LocksAtThreshold(t *testing.T) {
	var lockedCount int
	var lockedUntil time.Time
	repo := &MockAccountRepository{
		SetLockFunc: func(ctx context.Context, email string, count int, until time.Time) error {
			lockedCount = count
			lockedUntil = until
			return nil
		},
		UpdateFailCountFunc: func(ctx context.Context, email string, count int) error {
			t.Fatal("counter must be written together with the lock")
			return nil
		},
	}

	policy := newTestLockoutPolicy(repo)
	acct := NewTestAccount("user@example.com", "hash")
	acct.LoginFailCount = 4

	before := time.Now()
	result, err := policy.OnFailure(context.Background(), acct)
	require.NoError(t, err)

	assert.Equal(t, 5, lockedCount)
	assert.Equal(t, 5, result.FailCount)
	assert.Equal(t, 0, result.Remaining)
	require.NotNil(t, result.LockUntil)

	// lock window is 30 seconds from the failing attempt
	assert.WithinDuration(t, before.Add(30*time.Second), lockedUntil, 2*time.Second)
}

func TestLockoutOnSuccess_NoopWhenClean(t *testing.T) {
	repo := &MockAccountRepository{
		ResetFailCountFunc: func(ctx context.Context, email string) error {
			t.Fatal("no reset write should happen for a clean account")
			return nil
		},
	}

	policy := newTestLockoutPolicy(repo)
	acct := NewTestAccount("user@example.com", "hash")

	require.NoError(t, policy.OnSuccess(context.Background(), acct))
}

func TestLockoutOnSuccess_ResetsCounter(t *testing.T) {
	resetCalled := false
	repo := &MockAccountRepository{
		ResetFailCountFunc: func(ctx context.Context, email string) error {
			resetCalled = true
			assert.Equal(t, "user@example.com", email)
			return nil
		},
	}

	policy := newTestLockoutPolicy(repo)
	acct := NewTestAccount("user@example.com", "hash")
	acct.LoginFailCount = 4

	require.NoError(t, policy.OnSuccess(context.Background(), acct))
	assert.True(t, resetCalled)
}

func TestLockoutOnFailure_PropagatesStoreError(t *testing.T) {
	repo := &MockAccountRepository{
		UpdateFailCountFunc: func(ctx context.Context, email string, count int) error {
			return models.ErrInternalServer
		},
	}

	policy := newTestLockoutPolicy(repo)
	acct := NewTestAccount("user@example.com", "hash")

	_, err := policy.OnFailure(context.Background(), acct)
	assert.ErrorIs(t, err, models.ErrInternalServer)
}
