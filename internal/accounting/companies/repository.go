package companies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// Repository reads the company master.
type Repository interface {
	Get(ctx context.Context, id int64) (Company, error)
	List(ctx context.Context) ([]Company, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id int64) (Company, error) {
	var c Company
	err := r.db.QueryRow(ctx, `SELECT id, code, name, created_at, updated_at FROM companies WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrCompanyNotFound
		}
		return Company{}, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, created_at, updated_at FROM companies ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
