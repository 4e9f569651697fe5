package mappings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// Repository persists system account mappings.
type Repository interface {
	Upsert(ctx context.Context, m Mapping) (Mapping, error)
	Get(ctx context.Context, companyID int64, key SystemKey) (Mapping, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Mapping, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, m Mapping) (Mapping, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO system_accounts (company_id, key, account_id)
VALUES ($1,$2,$3)
ON CONFLICT (company_id, key) DO UPDATE SET account_id=EXCLUDED.account_id, updated_at=NOW()
RETURNING company_id, key, account_id, created_at, updated_at`, m.CompanyID, m.Key, m.AccountID)
	var out Mapping
	if err := row.Scan(&out.CompanyID, &out.Key, &out.AccountID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return Mapping{}, err
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, companyID int64, key SystemKey) (Mapping, error) {
	var m Mapping
	err := r.db.QueryRow(ctx, `SELECT company_id, key, account_id, created_at, updated_at
FROM system_accounts WHERE company_id=$1 AND key=$2`, companyID, key).
		Scan(&m.CompanyID, &m.Key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mapping{}, shared.ErrUnmappedKey
		}
		return Mapping{}, err
	}
	return m, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID int64) ([]Mapping, error) {
	rows, err := r.db.Query(ctx, `SELECT company_id, key, account_id, created_at, updated_at
FROM system_accounts WHERE company_id=$1 ORDER BY key`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.CompanyID, &m.Key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
