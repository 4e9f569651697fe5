package journals

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
	"github.com/sawit-erp/sawit-erp/internal/accounting/periods"
	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
	internalshared "github.com/sawit-erp/sawit-erp/internal/shared"
)

const testCompany int64 = 1

// memRepo is an in-memory Repository and TxRepository. Mutations inside a
// failed WithTx are not rolled back, which is fine here because the service
// validates before it writes.
type memRepo struct {
	accounts map[int64]accounts.Account
	periods  []periods.Period
	entries  map[int64]JournalEntry
	lines    map[int64][]JournalLine
	counters map[string]int64

	nextEntryID int64
	nextLineID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts: make(map[int64]accounts.Account),
		entries:  make(map[int64]JournalEntry),
		lines:    make(map[int64][]JournalLine),
		counters: make(map[string]int64),
	}
}

func (m *memRepo) addAccount(id int64, code string, side accounts.NormalSide, posting, active bool) {
	m.accounts[id] = accounts.Account{
		ID:         id,
		CompanyID:  testCompany,
		Code:       code,
		Name:       code,
		NormalSide: side,
		IsPosting:  posting,
		IsActive:   active,
	}
}

func (m *memRepo) addPeriod(year int, month time.Month, closed bool) {
	start, end := periods.MonthWindow(year, month)
	m.periods = append(m.periods, periods.Period{
		ID:        int64(len(m.periods) + 1),
		CompanyID: testCompany,
		Year:      year,
		Month:     month,
		StartDate: start,
		EndDate:   end,
		IsClosed:  closed,
	})
}

func (m *memRepo) closePeriod(year int, month time.Month) {
	for i := range m.periods {
		if m.periods[i].Year == year && m.periods[i].Month == month {
			m.periods[i].IsClosed = true
		}
	}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) List(ctx context.Context, companyID int64) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range m.entries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}

func (m *memRepo) GetWithLines(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	entry, err := m.GetEntryForUpdate(ctx, companyID, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = m.lines[entry.ID]
	return entry, nil
}

func (m *memRepo) FindBySource(ctx context.Context, companyID int64, sourceType string, sourceID uuid.UUID) (JournalEntry, error) {
	for _, e := range m.entries {
		if e.CompanyID == companyID && e.SourceType == sourceType && e.SourceID == sourceID {
			e.Lines = m.lines[e.ID]
			return e, nil
		}
	}
	return JournalEntry{}, shared.ErrEntryNotFound
}

func (m *memRepo) AccountsByID(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error) {
	result := make(map[int64]accounts.Account, len(ids))
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok && a.CompanyID == companyID {
			result[id] = a
		}
	}
	return result, nil
}

func (m *memRepo) PeriodForDateForUpdate(ctx context.Context, companyID int64, date time.Time) (periods.Period, error) {
	for _, p := range m.periods {
		if p.CompanyID == companyID && !date.Before(p.StartDate) && !date.After(p.EndDate) {
			return p, nil
		}
	}
	return periods.Period{}, shared.ErrNoPeriod
}

func (m *memRepo) NextSequence(ctx context.Context, companyID int64, year int, month time.Month) (int64, error) {
	key := fmt.Sprintf("%d-%d-%d", companyID, year, int(month))
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memRepo) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	for _, e := range m.entries {
		if e.CompanyID == entry.CompanyID && entry.SourceID != uuid.Nil &&
			e.SourceType == entry.SourceType && e.SourceID == entry.SourceID {
			return JournalEntry{}, shared.ErrSourceConflict
		}
		if e.CompanyID == entry.CompanyID && e.Number == entry.Number {
			return JournalEntry{}, shared.ErrNumberConflict
		}
	}
	m.nextEntryID++
	entry.ID = m.nextEntryID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *memRepo) InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]JournalLine, error) {
	inserted := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		m.nextLineID++
		inserted = append(inserted, JournalLine{
			ID:          m.nextLineID,
			EntryID:     entryID,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
			Department:  line.Department,
			CostCenter:  line.CostCenter,
		})
	}
	m.lines[entryID] = append(m.lines[entryID], inserted...)
	return inserted, nil
}

func (m *memRepo) GetEntryForUpdate(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	entry, ok := m.entries[entryID]
	if !ok || entry.CompanyID != companyID {
		return JournalEntry{}, shared.ErrEntryNotFound
	}
	return entry, nil
}

func (m *memRepo) GetLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	return m.lines[entryID], nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, entryID int64, status EntryStatus, postedAt *time.Time) error {
	entry, ok := m.entries[entryID]
	if !ok {
		return shared.ErrEntryNotFound
	}
	entry.Status = status
	if postedAt != nil {
		entry.PostedAt = postedAt
	}
	m.entries[entryID] = entry
	return nil
}

func (m *memRepo) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, ok := m.entries[entryID]; !ok {
		return shared.ErrEntryNotFound
	}
	delete(m.entries, entryID)
	delete(m.lines, entryID)
	return nil
}

type memAudit struct {
	logs []internalshared.AuditLog
}

func (a *memAudit) Record(ctx context.Context, log internalshared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

const (
	acctAR       int64 = 10 // piutang usaha
	acctSalesCPO int64 = 20 // penjualan CPO
	acctPPNOut   int64 = 30 // PPN keluaran
	acctHeader   int64 = 40
	acctInactive int64 = 50
)

func newFixture(t *testing.T) (*Service, *memRepo, *memAudit) {
	t.Helper()
	repo := newMemRepo()
	repo.addAccount(acctAR, "1200", accounts.SideDebit, true, true)
	repo.addAccount(acctSalesCPO, "4100", accounts.SideCredit, true, true)
	repo.addAccount(acctPPNOut, "2310", accounts.SideCredit, true, true)
	repo.addAccount(acctHeader, "1000", accounts.SideDebit, false, true)
	repo.addAccount(acctInactive, "9999", accounts.SideDebit, true, false)
	repo.addPeriod(2025, time.September, true)
	repo.addPeriod(2025, time.October, false)

	audit := &memAudit{}
	svc := NewService(repo, audit)
	svc.WithNow(func() time.Time { return time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC) })
	return svc, repo, audit
}

// cpoSaleInput is a CPO invoice: 85,000,000 net plus 11% PPN keluaran.
func cpoSaleInput(sourceID uuid.UUID) SubmitInput {
	return SubmitInput{
		CompanyID:  testCompany,
		Date:       time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		SourceType: "SALES_INVOICE",
		SourceID:   sourceID,
		Memo:       "Penjualan CPO PT Mitra",
		CreatedBy:  7,
		Lines: []LineInput{
			{AccountID: acctAR, Debit: 94_350_000},
			{AccountID: acctSalesCPO, Credit: 85_000_000},
			{AccountID: acctPPNOut, Credit: 9_350_000},
		},
	}
}

func TestSubmitPostsBalancedEntry(t *testing.T) {
	svc, repo, audit := newFixture(t)

	entry, err := svc.Submit(context.Background(), cpoSaleInput(uuid.New()))
	require.NoError(t, err)

	require.Equal(t, "JU-2025-10-0001", entry.Number)
	require.Equal(t, StatusPosted, entry.Status)
	require.NotNil(t, entry.PostedAt)
	require.Len(t, entry.Lines, 3)
	require.Len(t, repo.entries, 1)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "journal.post", audit.logs[0].Action)
	require.Equal(t, int64(7), audit.logs[0].ActorID)
}

func TestSubmitAssignsSequentialNumbers(t *testing.T) {
	svc, _, _ := newFixture(t)

	first, err := svc.Submit(context.Background(), cpoSaleInput(uuid.New()))
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), cpoSaleInput(uuid.New()))
	require.NoError(t, err)

	require.Equal(t, "JU-2025-10-0001", first.Number)
	require.Equal(t, "JU-2025-10-0002", second.Number)
}

func TestSubmitCollectsEveryViolation(t *testing.T) {
	svc, repo, _ := newFixture(t)

	in := SubmitInput{
		CompanyID:  testCompany,
		Date:       time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		SourceType: "",
		Lines: []LineInput{
			{AccountID: acctAR, Debit: 100, Credit: 50},
			{AccountID: 0, Debit: -10},
		},
	}
	_, err := svc.Submit(context.Background(), in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.GreaterOrEqual(t, len(verr.Violations), 4)
	require.Empty(t, repo.entries)
}

func TestSubmitClosedPeriodPersistsNothing(t *testing.T) {
	svc, repo, _ := newFixture(t)

	in := cpoSaleInput(uuid.New())
	in.Date = time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Submit(context.Background(), in)

	require.ErrorIs(t, err, shared.ErrPeriodClosed)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Empty(t, repo.entries)
}

func TestSubmitNoPeriod(t *testing.T) {
	svc, _, _ := newFixture(t)

	in := cpoSaleInput(uuid.New())
	in.Date = time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Submit(context.Background(), in)

	require.ErrorIs(t, err, shared.ErrNoPeriod)
}

func TestSubmitRejectsHeaderAndInactiveAccounts(t *testing.T) {
	svc, _, _ := newFixture(t)

	in := cpoSaleInput(uuid.New())
	in.Lines = []LineInput{
		{AccountID: acctHeader, Debit: 500},
		{AccountID: acctInactive, Credit: 500},
	}
	_, err := svc.Submit(context.Background(), in)

	require.ErrorIs(t, err, shared.ErrNotPostingAccount)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 2)
}

func TestSubmitUnknownAccount(t *testing.T) {
	svc, _, _ := newFixture(t)

	in := cpoSaleInput(uuid.New())
	in.Lines = []LineInput{
		{AccountID: 999, Debit: 500},
		{AccountID: acctSalesCPO, Credit: 500},
	}
	_, err := svc.Submit(context.Background(), in)

	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestSubmitSourceIdempotent(t *testing.T) {
	svc, repo, audit := newFixture(t)

	sourceID := uuid.New()
	first, err := svc.Submit(context.Background(), cpoSaleInput(sourceID))
	require.NoError(t, err)

	again, err := svc.Submit(context.Background(), cpoSaleInput(sourceID))
	require.NoError(t, err)

	require.Equal(t, first.ID, again.ID)
	require.Equal(t, first.Number, again.Number)
	require.Len(t, repo.entries, 1)
	require.Len(t, audit.logs, 1)
}

func TestSubmitDraftSkipsPostedStamp(t *testing.T) {
	svc, _, audit := newFixture(t)

	in := cpoSaleInput(uuid.Nil)
	in.Status = StatusDraft
	entry, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, StatusDraft, entry.Status)
	require.Nil(t, entry.PostedAt)
	require.Empty(t, audit.logs)
}

func TestPostDraft(t *testing.T) {
	svc, _, audit := newFixture(t)

	in := cpoSaleInput(uuid.Nil)
	in.Status = StatusDraft
	draft, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	posted, err := svc.Post(context.Background(), testCompany, draft.ID, 9)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
	require.Len(t, audit.logs, 1)

	_, err = svc.Post(context.Background(), testCompany, draft.ID, 9)
	require.ErrorIs(t, err, shared.ErrAlreadyPosted)
}

func TestPostDraftAfterPeriodClose(t *testing.T) {
	svc, repo, _ := newFixture(t)

	in := cpoSaleInput(uuid.Nil)
	in.Status = StatusDraft
	draft, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	repo.closePeriod(2025, time.October)

	_, err = svc.Post(context.Background(), testCompany, draft.ID, 9)
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestReverseMirrorsLines(t *testing.T) {
	svc, repo, audit := newFixture(t)

	original, err := svc.Submit(context.Background(), cpoSaleInput(uuid.New()))
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), ReverseInput{
		CompanyID: testCompany,
		EntryID:   original.ID,
		ActorID:   9,
	})
	require.NoError(t, err)

	require.Equal(t, StatusPosted, reversal.Status)
	require.Equal(t, SourceTypeReversal, reversal.SourceType)
	require.NotNil(t, reversal.ReversalOf)
	require.Equal(t, original.ID, *reversal.ReversalOf)
	require.Equal(t, "Reversal of "+original.Number, reversal.Memo)
	require.Len(t, reversal.Lines, len(original.Lines))
	for i, line := range reversal.Lines {
		require.Equal(t, original.Lines[i].AccountID, line.AccountID)
		require.Equal(t, original.Lines[i].Debit, line.Credit)
		require.Equal(t, original.Lines[i].Credit, line.Debit)
	}

	flipped, err := svc.Get(context.Background(), testCompany, original.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReversed, flipped.Status)

	// Net effect across both entries is zero per account.
	net := make(map[int64]int64)
	for _, e := range []JournalEntry{original, reversal} {
		for _, line := range repo.lines[e.ID] {
			net[line.AccountID] += line.Debit - line.Credit
		}
	}
	for accountID, sum := range net {
		require.Zerof(t, sum, "account %d not neutral", accountID)
	}

	require.Len(t, audit.logs, 2)
	require.Equal(t, "journal.reverse", audit.logs[1].Action)
}

func TestReverseTwiceReturnsSameReversal(t *testing.T) {
	svc, repo, _ := newFixture(t)

	original, err := svc.Submit(context.Background(), cpoSaleInput(uuid.New()))
	require.NoError(t, err)

	first, err := svc.Reverse(context.Background(), ReverseInput{CompanyID: testCompany, EntryID: original.ID, ActorID: 9})
	require.NoError(t, err)

	second, err := svc.Reverse(context.Background(), ReverseInput{CompanyID: testCompany, EntryID: original.ID, ActorID: 9})
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.entries, 2)
}

func TestReverseRequiresPostedEntry(t *testing.T) {
	svc, _, _ := newFixture(t)

	in := cpoSaleInput(uuid.Nil)
	in.Status = StatusDraft
	draft, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), ReverseInput{CompanyID: testCompany, EntryID: draft.ID, ActorID: 9})
	require.ErrorIs(t, err, shared.ErrNotPosted)
}

func TestDeleteDraft(t *testing.T) {
	svc, repo, _ := newFixture(t)

	in := cpoSaleInput(uuid.Nil)
	in.Status = StatusDraft
	draft, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDraft(context.Background(), testCompany, draft.ID))
	require.Empty(t, repo.entries)

	posted, err := svc.Submit(context.Background(), cpoSaleInput(uuid.New()))
	require.NoError(t, err)
	require.ErrorIs(t, svc.DeleteDraft(context.Background(), testCompany, posted.ID), shared.ErrNotDraft)
}
