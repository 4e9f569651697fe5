package balances

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates ledger lines and opening balances. Only POSTED and
// REVERSED entries contribute; drafts never affect balances, and a reversed
// pair nets to zero through its mirror entry.
type Repository interface {
	SumPostedLines(ctx context.Context, companyID, accountID int64, from, to time.Time) (debit, credit int64, err error)
	LatestOpening(ctx context.Context, companyID, accountID int64, onOrBefore time.Time) (OpeningBalance, time.Time, bool, error)
	UpsertOpening(ctx context.Context, ob OpeningBalance) (OpeningBalance, error)
	ListOpenings(ctx context.Context, companyID, periodID int64) ([]OpeningBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// SumPostedLines totals committed line amounts for the account within
// [from, to]. A zero from drops the lower bound.
func (r *repository) SumPostedLines(ctx context.Context, companyID, accountID int64, from, to time.Time) (int64, int64, error) {
	const query = `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.company_id=$1 AND l.account_id=$2 AND e.status <> 'DRAFT'
AND e.date <= $3 AND ($4::date IS NULL OR e.date >= $4)`
	var lower any
	if !from.IsZero() {
		lower = from
	}
	var debit, credit int64
	err := r.db.QueryRow(ctx, query, companyID, accountID, to, lower).Scan(&debit, &credit)
	return debit, credit, err
}

// LatestOpening returns the most recent opening row whose period starts on
// or before the date, with that period's start for bounding line sums.
func (r *repository) LatestOpening(ctx context.Context, companyID, accountID int64, onOrBefore time.Time) (OpeningBalance, time.Time, bool, error) {
	var ob OpeningBalance
	var start time.Time
	err := r.db.QueryRow(ctx, `SELECT ob.company_id, ob.period_id, ob.account_id, ob.debit, ob.credit, ob.created_at, ob.updated_at, p.start_date
FROM opening_balances ob
JOIN fiscal_periods p ON p.id = ob.period_id
WHERE ob.company_id=$1 AND ob.account_id=$2 AND p.start_date <= $3
ORDER BY p.start_date DESC LIMIT 1`, companyID, accountID, onOrBefore).
		Scan(&ob.CompanyID, &ob.PeriodID, &ob.AccountID, &ob.Debit, &ob.Credit, &ob.CreatedAt, &ob.UpdatedAt, &start)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OpeningBalance{}, time.Time{}, false, nil
		}
		return OpeningBalance{}, time.Time{}, false, err
	}
	return ob, start, true, nil
}

func (r *repository) UpsertOpening(ctx context.Context, ob OpeningBalance) (OpeningBalance, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO opening_balances (company_id, period_id, account_id, debit, credit)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (company_id, period_id, account_id) DO UPDATE SET debit=EXCLUDED.debit, credit=EXCLUDED.credit, updated_at=NOW()
RETURNING company_id, period_id, account_id, debit, credit, created_at, updated_at`,
		ob.CompanyID, ob.PeriodID, ob.AccountID, ob.Debit, ob.Credit)
	var out OpeningBalance
	if err := row.Scan(&out.CompanyID, &out.PeriodID, &out.AccountID, &out.Debit, &out.Credit, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return OpeningBalance{}, err
	}
	return out, nil
}

func (r *repository) ListOpenings(ctx context.Context, companyID, periodID int64) ([]OpeningBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT company_id, period_id, account_id, debit, credit, created_at, updated_at
FROM opening_balances WHERE company_id=$1 AND period_id=$2 ORDER BY account_id`, companyID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []OpeningBalance
	for rows.Next() {
		var ob OpeningBalance
		if err := rows.Scan(&ob.CompanyID, &ob.PeriodID, &ob.AccountID, &ob.Debit, &ob.Credit, &ob.CreatedAt, &ob.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, ob)
	}
	return result, rows.Err()
}
