package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/database"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository is the Postgres credential store. Every mutation is a
// single statement, so per-account transitions are serialized by row-level
// locking inside Postgres and a caller timeout can never leave half a write.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

const accountColumns = `email, password_hash, full_name, provider, role, status,
	is_suspended, suspend_until, suspend_reason, login_fail_count, lock_until,
	refresh_token, action_token, token_expire_at, created_at, updated_at`

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var acct models.Account

	err := scanner.Scan(
		&acct.Email, &acct.PasswordHash, &acct.FullName, &acct.Provider,
		&acct.Role, &acct.Status, &acct.IsSuspended, &acct.SuspendUntil,
		&acct.SuspendReason, &acct.LoginFailCount, &acct.LockUntil,
		&acct.RefreshToken, &acct.ActionToken, &acct.TokenExpireAt,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &acct, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccountRow(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) FindByActionToken(ctx context.Context, token string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE action_token = $1`
	return scanAccountRow(r.pool.QueryRow(ctx, query, token))
}

func (r *AccountRepository) Create(ctx context.Context, acct *models.Account) error {
	query := `
		INSERT INTO accounts (email, password_hash, full_name, provider, role, status, action_token, token_expire_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		acct.Email, acct.PasswordHash, acct.FullName, acct.Provider,
		acct.Role, acct.Status, acct.ActionToken, acct.TokenExpireAt,
	)
	return database.MapPostgresError(err)
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		acct, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

// UpdateFailCount persists the consecutive-failure counter.
func (r *AccountRepository) UpdateFailCount(ctx context.Context, email string, count int) error {
	return r.execOne(ctx,
		`UPDATE accounts SET login_fail_count = $2, updated_at = NOW() WHERE email = $1`,
		email, count)
}

// SetLock writes the fail count and the lock expiry in one statement, so an
// abandoned request cannot leave the counter at the threshold without a lock.
func (r *AccountRepository) SetLock(ctx context.Context, email string, count int, until time.Time) error {
	return r.execOne(ctx,
		`UPDATE accounts SET login_fail_count = $2, lock_until = $3, updated_at = NOW() WHERE email = $1`,
		email, count, until)
}

// ResetFailCount fully rehabilitates the account: counter to zero, lock gone.
func (r *AccountRepository) ResetFailCount(ctx context.Context, email string) error {
	return r.execOne(ctx,
		`UPDATE accounts SET login_fail_count = 0, lock_until = NULL, updated_at = NOW() WHERE email = $1`,
		email)
}

func (r *AccountRepository) ClearSuspension(ctx context.Context, email string) error {
	return r.execOne(ctx,
		`UPDATE accounts SET is_suspended = FALSE, suspend_until = NULL, suspend_reason = NULL, updated_at = NOW() WHERE email = $1`,
		email)
}

func (r *AccountRepository) Suspend(ctx context.Context, email string, until *time.Time, reason string) error {
	return r.execOne(ctx,
		`UPDATE accounts SET is_suspended = TRUE, suspend_until = $2, suspend_reason = $3, updated_at = NOW() WHERE email = $1`,
		email, until, reason)
}

// SetRefreshToken overwrites the stored refresh token unconditionally. Used
// on login and social login, where a fresh session replaces any prior one.
func (r *AccountRepository) SetRefreshToken(ctx context.Context, email, token string) error {
	return r.execOne(ctx,
		`UPDATE accounts SET refresh_token = $2, updated_at = NOW() WHERE email = $1`,
		email, token)
}

// RotateRefreshToken swaps the stored refresh token for next only when the
// stored value still equals presented. The compare-and-swap makes rotation
// safe under concurrent refresh calls: exactly one wins, the loser observes
// a mismatch and must go down the reuse-detection path.
func (r *AccountRepository) RotateRefreshToken(ctx context.Context, email, presented, next string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = $3, updated_at = NOW() WHERE email = $1 AND refresh_token = $2`,
		email, presented, next)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AccountRepository) DeleteRefreshToken(ctx context.Context, email string) error {
	return r.execOne(ctx,
		`UPDATE accounts SET refresh_token = NULL, updated_at = NOW() WHERE email = $1`,
		email)
}

// DeleteAllRefreshTokens clears every stored refresh token, ending all live
// sessions at their next rotation. Returns how many sessions were ended.
func (r *AccountRepository) DeleteAllRefreshTokens(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = NULL, updated_at = NOW()
		 WHERE refresh_token IS NOT NULL`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

// Activate flips the account to ACTIVE and consumes the verification token.
func (r *AccountRepository) Activate(ctx context.Context, email string) error {
	return r.execOne(ctx,
		`UPDATE accounts SET status = 'ACTIVE', action_token = NULL, token_expire_at = NULL, updated_at = NOW() WHERE email = $1`,
		email)
}

func (r *AccountRepository) SetActionToken(ctx context.Context, email, token string, expireAt time.Time) error {
	return r.execOne(ctx,
		`UPDATE accounts SET action_token = $2, token_expire_at = $3, updated_at = NOW() WHERE email = $1`,
		email, token, expireAt)
}

// ConsumeResetToken atomically sets the new password hash and clears the
// reset token, guarded by the token still being present and unexpired. The
// boolean result is false when the token was already consumed or timed out,
// which guarantees single use even under concurrent confirm calls.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts
		 SET password_hash = $2, action_token = NULL, token_expire_at = NULL, updated_at = NOW()
		 WHERE action_token = $1 AND token_expire_at > NOW()`,
		token, passwordHash)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AccountRepository) UpdateRole(ctx context.Context, email, role string) error {
	return r.execOne(ctx,
		`UPDATE accounts SET role = $2, updated_at = NOW() WHERE email = $1`,
		email, role)
}

// Delete removes the account row. Exposed for explicit user withdrawal only.
func (r *AccountRepository) Delete(ctx context.Context, email string) error {
	return r.execOne(ctx, `DELETE FROM accounts WHERE email = $1`, email)
}

// DeleteExpiredActionTokens clears verification/reset tokens whose window has
// passed, so stale links can never be replayed much later.
func (r *AccountRepository) DeleteExpiredActionTokens(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET action_token = NULL, token_expire_at = NULL
		 WHERE action_token IS NOT NULL AND token_expire_at <= NOW()`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

// execOne runs a statement expected to touch exactly one row and maps a miss
// to models.ErrNotFound.
func (r *AccountRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
