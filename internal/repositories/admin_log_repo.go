package repositories

import (
	"context"

	"github.com/dohyunkim-dev/marketgate/internal/database"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminLogRepository records administrative actions for auditability.
type AdminLogRepository struct {
	pool *pgxpool.Pool
}

func NewAdminLogRepository(db *database.DB) *AdminLogRepository {
	return &AdminLogRepository{pool: db.Pool}
}

func (r *AdminLogRepository) Record(ctx context.Context, log *models.AdminLog) error {
	query := `
		INSERT INTO admin_logs (admin_email, target_email, action, detail)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, log.AdminEmail, log.TargetEmail, log.Action, log.Detail)
	return database.MapPostgresError(err)
}

// ListByTarget returns the action history against one account, newest first.
func (r *AdminLogRepository) ListByTarget(ctx context.Context, targetEmail string, limit int) ([]*models.AdminLog, error) {
	query := `
		SELECT id, admin_email, target_email, action, detail, created_at
		FROM admin_logs WHERE target_email = $1
		ORDER BY created_at DESC LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, targetEmail, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	logs := make([]*models.AdminLog, 0)
	for rows.Next() {
		var l models.AdminLog
		if err := rows.Scan(&l.ID, &l.AdminEmail, &l.TargetEmail, &l.Action, &l.Detail, &l.CreatedAt); err != nil {
			return nil, database.MapPostgresError(err)
		}
		logs = append(logs, &l)
	}

	return logs, rows.Err()
}
