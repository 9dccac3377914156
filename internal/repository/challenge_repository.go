package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/registration-portal/internal/domain"
)

// ChallengeRepository manages the single live MFA challenge per subject.
// Put supersedes atomically; attempt counting and consumption are atomic
// read-modify-write statements so concurrent verifications cannot double
// spend a code.
type ChallengeRepository interface {
	Put(ctx context.Context, challenge *domain.MfaChallenge) error
	GetBySubject(ctx context.Context, subjectID string) (*domain.MfaChallenge, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	MarkConsumed(ctx context.Context, id string) (bool, error)
}

type challengeRepository struct {
	pool *pgxpool.Pool
}

// NewChallengeRepository returns a Postgres-backed implementation.
func NewChallengeRepository(pool *pgxpool.Pool) ChallengeRepository {
	return &challengeRepository{pool: pool}
}

func (r *challengeRepository) Put(ctx context.Context, challenge *domain.MfaChallenge) error {
	// One row per subject; a new challenge replaces the old one wholesale
	// (superseded, not merged).
	const query = `
        INSERT INTO mfa_challenges (id, subject_id, code, attempt_count, consumed, created_at, expires_at)
        VALUES ($1, $2, $3, 0, FALSE, $4, $5)
        ON CONFLICT (subject_id) DO UPDATE
        SET id=EXCLUDED.id, code=EXCLUDED.code, attempt_count=0, consumed=FALSE,
            created_at=EXCLUDED.created_at, expires_at=EXCLUDED.expires_at`

	_, err := r.pool.Exec(ctx, query,
		challenge.ID,
		challenge.SubjectID,
		challenge.Code,
		challenge.CreatedAt,
		challenge.ExpiresAt,
	)
	return err
}

func (r *challengeRepository) GetBySubject(ctx context.Context, subjectID string) (*domain.MfaChallenge, error) {
	const query = `
        SELECT id, subject_id, code, attempt_count, consumed, created_at, expires_at
        FROM mfa_challenges WHERE subject_id=$1`

	var challenge domain.MfaChallenge
	if err := r.pool.QueryRow(ctx, query, subjectID).Scan(
		&challenge.ID,
		&challenge.SubjectID,
		&challenge.Code,
		&challenge.AttemptCount,
		&challenge.Consumed,
		&challenge.CreatedAt,
		&challenge.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	const query = `
        UPDATE mfa_challenges SET attempt_count=attempt_count+1
        WHERE id=$1
        RETURNING attempt_count`

	var count int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		if err == pgx.ErrNoRows {
			return 0, pgx.ErrNoRows
		}
		return 0, err
	}
	return count, nil
}

func (r *challengeRepository) MarkConsumed(ctx context.Context, id string) (bool, error) {
	// Guarded update makes consumption single-use under concurrency.
	const query = `
        UPDATE mfa_challenges SET consumed=TRUE
        WHERE id=$1 AND consumed=FALSE`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
