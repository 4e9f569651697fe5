package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// Repository persists fiscal periods.
type Repository interface {
	InsertIgnoringExisting(ctx context.Context, period Period) error
	GetByID(ctx context.Context, companyID, id int64) (Period, error)
	ListByYear(ctx context.Context, companyID int64, year int) ([]Period, error)
	FindByDate(ctx context.Context, companyID int64, date time.Time) (Period, error)
	Close(ctx context.Context, companyID, id, actorID int64, at time.Time) (Period, error)
	LatestClosedEnd(ctx context.Context, companyID int64) (time.Time, bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, company_id, year, month, start_date, end_date, is_closed, closed_at, closed_by, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	var month int
	err := row.Scan(&p.ID, &p.CompanyID, &p.Year, &month, &p.StartDate, &p.EndDate,
		&p.IsClosed, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	p.Month = time.Month(month)
	return p, err
}

// InsertIgnoringExisting inserts the period unless (company, year, month)
// already exists, which keeps year generation idempotent.
func (r *repository) InsertIgnoringExisting(ctx context.Context, period Period) error {
	_, err := r.db.Exec(ctx, `INSERT INTO fiscal_periods (company_id, year, month, start_date, end_date, is_closed)
VALUES ($1,$2,$3,$4,$5,FALSE)
ON CONFLICT (company_id, year, month) DO NOTHING`,
		period.CompanyID, period.Year, int(period.Month), period.StartDate, period.EndDate)
	return err
}

func (r *repository) GetByID(ctx context.Context, companyID, id int64) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE company_id=$1 AND id=$2`, companyID, id)
	period, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return period, nil
}

func (r *repository) ListByYear(ctx context.Context, companyID int64, year int) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE company_id=$1 AND year=$2 ORDER BY month`, companyID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, period)
	}
	return result, rows.Err()
}

func (r *repository) FindByDate(ctx context.Context, companyID int64, date time.Time) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods
WHERE company_id=$1 AND $2 BETWEEN start_date AND end_date`, companyID, date)
	period, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNoPeriod
		}
		return Period{}, err
	}
	return period, nil
}

// Close flips is_closed exactly once; a second call reports the period as
// already closed via the returned state.
func (r *repository) Close(ctx context.Context, companyID, id, actorID int64, at time.Time) (Period, error) {
	row := r.db.QueryRow(ctx, `UPDATE fiscal_periods
SET is_closed=TRUE, closed_at=COALESCE(closed_at,$4), closed_by=COALESCE(closed_by,$3), updated_at=NOW()
WHERE company_id=$1 AND id=$2 RETURNING `+periodColumns, companyID, id, actorID, at)
	period, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return period, nil
}

func (r *repository) LatestClosedEnd(ctx context.Context, companyID int64) (time.Time, bool, error) {
	var end time.Time
	err := r.db.QueryRow(ctx, `SELECT end_date FROM fiscal_periods
WHERE company_id=$1 AND is_closed ORDER BY end_date DESC LIMIT 1`, companyID).Scan(&end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return end, true, nil
}
