package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
	"github.com/sawit-erp/sawit-erp/internal/accounting/periods"
	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
	"github.com/sawit-erp/sawit-erp/internal/platform/db"
)

// Repository encapsulates ledger storage. Mutations run inside WithTx so an
// entry header always commits atomically with its lines.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, companyID int64) ([]JournalEntry, error)
	GetWithLines(ctx context.Context, companyID, entryID int64) (JournalEntry, error)
	FindBySource(ctx context.Context, companyID int64, sourceType string, sourceID uuid.UUID) (JournalEntry, error)
}

// TxRepository exposes operations available within one transaction.
type TxRepository interface {
	AccountsByID(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error)
	PeriodForDateForUpdate(ctx context.Context, companyID int64, date time.Time) (periods.Period, error)
	NextSequence(ctx context.Context, companyID int64, year int, month time.Month) (int64, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]JournalLine, error)
	GetEntryForUpdate(ctx context.Context, companyID, entryID int64) (JournalEntry, error)
	GetLines(ctx context.Context, entryID int64) ([]JournalLine, error)
	FindBySource(ctx context.Context, companyID int64, sourceType string, sourceID uuid.UUID) (JournalEntry, error)
	UpdateStatus(ctx context.Context, entryID int64, status EntryStatus, postedAt *time.Time) error
	DeleteEntry(ctx context.Context, entryID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const entryColumns = `id, company_id, number, date, source_type, source_id, memo, status, posted_at, reversal_of, created_by, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	var sourceID *uuid.UUID
	err := row.Scan(&e.ID, &e.CompanyID, &e.Number, &e.Date, &e.SourceType, &sourceID,
		&e.Memo, &e.Status, &e.PostedAt, &e.ReversalOf, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if sourceID != nil {
		e.SourceID = *sourceID
	}
	return e, err
}

func (r *repository) List(ctx context.Context, companyID int64) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE company_id=$1 ORDER BY number DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) GetWithLines(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE company_id=$1 AND id=$2`, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.db, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) FindBySource(ctx context.Context, companyID int64, sourceType string, sourceID uuid.UUID) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id=$1 AND source_type=$2 AND source_id=$3`, companyID, sourceType, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.db, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, description, department, cost_center, created_at
FROM journal_lines WHERE entry_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit,
			&line.Description, &line.Department, &line.CostCenter, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) AccountsByID(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, code, name, class, normal_side, is_posting, is_active
FROM accounts WHERE company_id=$1 AND id = ANY($2)`, companyID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int64]accounts.Account, len(ids))
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Class, &a.NormalSide, &a.IsPosting, &a.IsActive); err != nil {
			return nil, err
		}
		a.CompanyID = companyID
		result[a.ID] = a
	}
	return result, rows.Err()
}

// PeriodForDateForUpdate locks the covering period row so a concurrent close
// cannot land between validation and commit.
func (r *txRepository) PeriodForDateForUpdate(ctx context.Context, companyID int64, date time.Time) (periods.Period, error) {
	var p periods.Period
	var month int
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, year, month, start_date, end_date, is_closed, closed_at, closed_by, created_at, updated_at
FROM fiscal_periods WHERE company_id=$1 AND $2 BETWEEN start_date AND end_date FOR UPDATE`, companyID, date).
		Scan(&p.ID, &p.CompanyID, &p.Year, &month, &p.StartDate, &p.EndDate, &p.IsClosed, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrNoPeriod
		}
		return periods.Period{}, err
	}
	p.Month = time.Month(month)
	return p, nil
}

// NextSequence atomically advances the per-company, per-period counter.
func (r *txRepository) NextSequence(ctx context.Context, companyID int64, year int, month time.Month) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_counters (company_id, year, month, last_seq)
VALUES ($1,$2,$3,1)
ON CONFLICT (company_id, year, month) DO UPDATE SET last_seq = journal_counters.last_seq + 1
RETURNING last_seq`, companyID, year, int(month)).Scan(&seq)
	return seq, err
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	var sourceID any
	if entry.SourceID != uuid.Nil {
		sourceID = entry.SourceID
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, number, date, source_type, source_id, memo, status, posted_at, reversal_of, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+entryColumns,
		entry.CompanyID, entry.Number, entry.Date, entry.SourceType, sourceID,
		entry.Memo, entry.Status, entry.PostedAt, entry.ReversalOf, entry.CreatedBy)
	inserted, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "uq_journal_entries_source":
				return JournalEntry{}, shared.ErrSourceConflict
			case "uq_journal_entries_number":
				return JournalEntry{}, shared.ErrNumberConflict
			}
		}
		return JournalEntry{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]JournalLine, error) {
	inserted := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		var out JournalLine
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, description, department, cost_center)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, entry_id, account_id, debit, credit, description, department, cost_center, created_at`,
			entryID, line.AccountID, line.Debit, line.Credit, line.Description, line.Department, line.CostCenter).
			Scan(&out.ID, &out.EntryID, &out.AccountID, &out.Debit, &out.Credit,
				&out.Description, &out.Department, &out.CostCenter, &out.CreatedAt)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, out)
	}
	return inserted, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) GetLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	return queryLines(ctx, r.tx, entryID)
}

func (r *txRepository) FindBySource(ctx context.Context, companyID int64, sourceType string, sourceID uuid.UUID) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id=$1 AND source_type=$2 AND source_id=$3`, companyID, sourceType, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.tx, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, entryID int64, status EntryStatus, postedAt *time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, posted_at=COALESCE($3, posted_at), updated_at=NOW() WHERE id=$1`, entryID, status, postedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}
