package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/registration-portal/internal/domain"
)

// LoginHistoryRepository appends immutable login fingerprints. There is no
// update or delete: the table is append-only by contract.
type LoginHistoryRepository interface {
	Append(ctx context.Context, entry *domain.LoginHistoryEntry) error
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.LoginHistoryEntry, error)
}

type loginHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewLoginHistoryRepository returns a Postgres-backed implementation.
func NewLoginHistoryRepository(pool *pgxpool.Pool) LoginHistoryRepository {
	return &loginHistoryRepository{pool: pool}
}

func (r *loginHistoryRepository) Append(ctx context.Context, entry *domain.LoginHistoryEntry) error {
	const query = `
        INSERT INTO login_history (subject_id, ip, user_agent, outcome)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.SubjectID,
		entry.IP,
		entry.UserAgent,
		entry.Outcome,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *loginHistoryRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.LoginHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, subject_id, ip, user_agent, outcome, created_at
        FROM login_history WHERE subject_id=$1
        ORDER BY created_at DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LoginHistoryEntry
	for rows.Next() {
		var entry domain.LoginHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SubjectID,
			&entry.IP,
			&entry.UserAgent,
			&entry.Outcome,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
