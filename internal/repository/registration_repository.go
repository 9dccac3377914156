package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/registration-portal/internal/crypto"
	"github.com/spec-kit/registration-portal/internal/domain"
)

// RegistrationRepository stores participant records. PII columns hold
// ciphertext only; equality search goes through the email lookup hash.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	GetByID(ctx context.Context, id string) (*domain.Registration, error)
	GetByEmailHash(ctx context.Context, hash crypto.LookupHash) (*domain.Registration, error)
	List(ctx context.Context, limit, offset int) ([]domain.Registration, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository returns a Postgres-backed implementation.
func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const registrationColumns = `id, full_name,
        email_ciphertext, email_iv, email_algorithm, email_hash,
        phone_ciphertext, phone_iv, phone_algorithm,
        city_country, region, program_level, mode, payment_status, created_at`

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	const query = `
        INSERT INTO registrations (full_name, email_ciphertext, email_iv, email_algorithm, email_hash,
               phone_ciphertext, phone_iv, phone_algorithm, city_country, region, program_level, mode, payment_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		reg.FullName,
		reg.Email.Ciphertext,
		reg.Email.IV,
		reg.Email.Algorithm,
		string(reg.EmailHash),
		reg.Phone.Ciphertext,
		reg.Phone.IV,
		reg.Phone.Algorithm,
		reg.CityCountry,
		reg.Region,
		reg.ProgramLevel,
		reg.Mode,
		reg.PaymentStatus,
	).Scan(&reg.ID, &reg.CreatedAt)
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	const query = `
        SELECT ` + registrationColumns + `
        FROM registrations WHERE id=$1`
	return scanRegistration(r.pool.QueryRow(ctx, query, id))
}

func (r *registrationRepository) GetByEmailHash(ctx context.Context, hash crypto.LookupHash) (*domain.Registration, error) {
	const query = `
        SELECT ` + registrationColumns + `
        FROM registrations WHERE email_hash=$1`
	return scanRegistration(r.pool.QueryRow(ctx, query, string(hash)))
}

func (r *registrationRepository) List(ctx context.Context, limit, offset int) ([]domain.Registration, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT ` + registrationColumns + `
        FROM registrations
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	const query = `
        UPDATE registrations SET payment_status=$1
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var reg domain.Registration
	var emailHash string
	if err := row.Scan(
		&reg.ID,
		&reg.FullName,
		&reg.Email.Ciphertext,
		&reg.Email.IV,
		&reg.Email.Algorithm,
		&emailHash,
		&reg.Phone.Ciphertext,
		&reg.Phone.IV,
		&reg.Phone.Algorithm,
		&reg.CityCountry,
		&reg.Region,
		&reg.ProgramLevel,
		&reg.Mode,
		&reg.PaymentStatus,
		&reg.CreatedAt,
	); err != nil {
		return nil, err
	}
	reg.EmailHash = crypto.LookupHash(emailHash)
	return &reg, nil
}
