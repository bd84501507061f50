package repositories

import (
	"context"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/database"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginEventRepository persists the login audit trail.
type LoginEventRepository struct {
	pool *pgxpool.Pool
}

func NewLoginEventRepository(db *database.DB) *LoginEventRepository {
	return &LoginEventRepository{pool: db.Pool}
}

// Record appends one event row. Failures here must not abort the login flow;
// callers log and continue.
func (r *LoginEventRepository) Record(ctx context.Context, event *models.LoginEvent) error {
	query := `
		INSERT INTO login_events (email, result, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, event.Email, event.Result, event.IPAddress, event.UserAgent)
	return database.MapPostgresError(err)
}

// ListByEmail returns the most recent events for one account, newest first.
func (r *LoginEventRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error) {
	query := `
		SELECT id, email, result, ip_address, user_agent, created_at
		FROM login_events WHERE email = $1
		ORDER BY created_at DESC LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, email, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	events := make([]*models.LoginEvent, 0)
	for rows.Next() {
		var ev models.LoginEvent
		if err := rows.Scan(&ev.ID, &ev.Email, &ev.Result, &ev.IPAddress, &ev.UserAgent, &ev.CreatedAt); err != nil {
			return nil, database.MapPostgresError(err)
		}
		events = append(events, &ev)
	}

	return events, rows.Err()
}

// DeleteOlderThan trims the audit trail to the configured retention window.
func (r *LoginEventRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM login_events WHERE created_at < $1`, before)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
