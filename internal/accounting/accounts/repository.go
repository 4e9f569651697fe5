package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// Repository persists chart of accounts nodes.
type Repository interface {
	Insert(ctx context.Context, account Account) (Account, error)
	GetByID(ctx context.Context, companyID, id int64) (Account, error)
	GetByCode(ctx context.Context, companyID int64, code string) (Account, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Account, error)
	Rename(ctx context.Context, companyID, id int64, code, name string) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
	HasPostedLines(ctx context.Context, accountID int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, company_id, code, name, class, normal_side, is_posting, is_cash_bank, tax_code, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Class, &a.NormalSide,
		&a.IsPosting, &a.IsCashBank, &a.TaxCode, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Insert(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, class, normal_side, is_posting, is_cash_bank, tax_code, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,TRUE) RETURNING `+accountColumns,
		account.CompanyID, account.Code, account.Name, account.Class, account.NormalSide,
		account.IsPosting, account.IsCashBank, account.TaxCode, account.ParentID)
	inserted, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return inserted, nil
}

func (r *repository) GetByID(ctx context.Context, companyID, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND id=$2`, companyID, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND code=$2`, companyID, code)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *repository) Rename(ctx context.Context, companyID, id int64, code, name string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET code=$3, name=$4, updated_at=NOW() WHERE company_id=$1 AND id=$2`, companyID, id, code, name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateCode
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=$3, updated_at=NOW() WHERE company_id=$1 AND id=$2`, companyID, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) HasPostedLines(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id=$1 AND e.status <> 'DRAFT')`, accountID).Scan(&exists)
	return exists, err
}
