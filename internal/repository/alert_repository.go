package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AlertRepository reads monitoring signals written by external collectors.
type AlertRepository interface {
	ListRecent(ctx context.Context, limit int) ([]domain.SystemAlert, error)
}

type alertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository returns a Postgres-backed reader.
func NewAlertRepository(pool *pgxpool.Pool) AlertRepository {
	return &alertRepository{pool: pool}
}

func (r *alertRepository) ListRecent(ctx context.Context, limit int) ([]domain.SystemAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, type, message, service, timestamp
        FROM system_alerts ORDER BY timestamp DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.SystemAlert{}
	for rows.Next() {
		var alert domain.SystemAlert
		if err := rows.Scan(&alert.ID, &alert.Type, &alert.Message, &alert.Service, &alert.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, alert)
	}
	return result, rows.Err()
}
