package balances

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
	"github.com/sawit-erp/sawit-erp/internal/accounting/periods"
	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

const testCompany int64 = 1

type ledgerLine struct {
	accountID int64
	date      time.Time
	debit     int64
	credit    int64
}

type openingRow struct {
	ob          OpeningBalance
	periodStart time.Time
}

type memRepo struct {
	lines    []ledgerLine
	openings []openingRow
}

func (m *memRepo) post(accountID int64, date time.Time, debit, credit int64) {
	m.lines = append(m.lines, ledgerLine{accountID: accountID, date: date, debit: debit, credit: credit})
}

func (m *memRepo) SumPostedLines(ctx context.Context, companyID, accountID int64, from, to time.Time) (int64, int64, error) {
	var debit, credit int64
	for _, line := range m.lines {
		if line.accountID != accountID || line.date.After(to) {
			continue
		}
		if !from.IsZero() && line.date.Before(from) {
			continue
		}
		debit += line.debit
		credit += line.credit
	}
	return debit, credit, nil
}

func (m *memRepo) LatestOpening(ctx context.Context, companyID, accountID int64, onOrBefore time.Time) (OpeningBalance, time.Time, bool, error) {
	var best openingRow
	found := false
	for _, row := range m.openings {
		if row.ob.AccountID != accountID || row.periodStart.After(onOrBefore) {
			continue
		}
		if !found || row.periodStart.After(best.periodStart) {
			best = row
			found = true
		}
	}
	if !found {
		return OpeningBalance{}, time.Time{}, false, nil
	}
	return best.ob, best.periodStart, true, nil
}

func (m *memRepo) UpsertOpening(ctx context.Context, ob OpeningBalance) (OpeningBalance, error) {
	for i, row := range m.openings {
		if row.ob.PeriodID == ob.PeriodID && row.ob.AccountID == ob.AccountID {
			m.openings[i].ob = ob
			return ob, nil
		}
	}
	start, _ := periods.MonthWindow(2025, time.Month(ob.PeriodID))
	m.openings = append(m.openings, openingRow{ob: ob, periodStart: start})
	return ob, nil
}

func (m *memRepo) ListOpenings(ctx context.Context, companyID, periodID int64) ([]OpeningBalance, error) {
	var out []OpeningBalance
	for _, row := range m.openings {
		if row.ob.CompanyID == companyID && row.ob.PeriodID == periodID {
			out = append(out, row.ob)
		}
	}
	return out, nil
}

type stubDirectory struct {
	accounts map[int64]accounts.Account
}

func (d stubDirectory) add(id int64, code string, side accounts.NormalSide, posting bool, parentID *int64) {
	d.accounts[id] = accounts.Account{
		ID: id, CompanyID: testCompany, Code: code, Name: code,
		Class: accounts.ClassAsset, NormalSide: side, IsPosting: posting, ParentID: parentID, IsActive: true,
	}
}

func (d stubDirectory) Get(ctx context.Context, companyID, id int64) (accounts.Account, error) {
	a, ok := d.accounts[id]
	if !ok {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (d stubDirectory) List(ctx context.Context, companyID int64) ([]accounts.Account, error) {
	var out []accounts.Account
	for _, a := range d.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (d stubDirectory) PostingSubtree(ctx context.Context, companyID, rootID int64) ([]accounts.Account, error) {
	if _, ok := d.accounts[rootID]; !ok {
		return nil, shared.ErrAccountNotFound
	}
	var posting []accounts.Account
	var walk func(id int64)
	walk = func(id int64) {
		node := d.accounts[id]
		if node.IsPosting {
			posting = append(posting, node)
		}
		for childID, child := range d.accounts {
			if child.ParentID != nil && *child.ParentID == id {
				walk(childID)
			}
		}
	}
	walk(rootID)
	return posting, nil
}

type stubPeriods struct {
	byID map[int64]periods.Period
}

func (s stubPeriods) Get(ctx context.Context, companyID, id int64) (periods.Period, error) {
	p, ok := s.byID[id]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

const (
	acctHeader int64 = 1
	acctCash   int64 = 2
	acctBank   int64 = 3
	acctSales  int64 = 4
)

func newFixture() (*Service, *memRepo) {
	repo := &memRepo{}
	dir := stubDirectory{accounts: make(map[int64]accounts.Account)}
	header := acctHeader
	dir.add(acctHeader, "1000", accounts.SideDebit, false, nil)
	dir.add(acctCash, "1100", accounts.SideDebit, true, &header)
	dir.add(acctBank, "1200", accounts.SideDebit, true, &header)
	dir.accounts[acctSales] = accounts.Account{
		ID: acctSales, CompanyID: testCompany, Code: "4100", Name: "Penjualan CPO",
		Class: accounts.ClassRevenue, NormalSide: accounts.SideCredit, IsPosting: true, IsActive: true,
	}

	octStart, octEnd := periods.MonthWindow(2025, time.October)
	ps := stubPeriods{byID: map[int64]periods.Period{
		10: {ID: 10, CompanyID: testCompany, Year: 2025, Month: time.October, StartDate: octStart, EndDate: octEnd},
	}}
	return NewService(repo, dir, ps), repo
}

func day(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}

func TestBalanceOrientsToNormalSide(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	repo.post(acctCash, day(5), 500_000, 0)
	repo.post(acctCash, day(9), 0, 200_000)
	repo.post(acctSales, day(5), 0, 500_000)

	cash, err := svc.Balance(ctx, testCompany, acctCash, day(31))
	require.NoError(t, err)
	require.Equal(t, int64(300_000), cash)

	sales, err := svc.Balance(ctx, testCompany, acctSales, day(31))
	require.NoError(t, err)
	require.Equal(t, int64(500_000), sales)

	// As-of cuts off later activity.
	early, err := svc.Balance(ctx, testCompany, acctCash, day(6))
	require.NoError(t, err)
	require.Equal(t, int64(500_000), early)
}

func TestBalanceStartsFromOpening(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	// Activity before October is superseded by the October opening row.
	repo.post(acctCash, time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC), 9_000_000, 0)
	repo.openings = append(repo.openings, openingRow{
		ob:          OpeningBalance{CompanyID: testCompany, PeriodID: 10, AccountID: acctCash, Debit: 1_000_000},
		periodStart: day(1),
	})
	repo.post(acctCash, day(5), 250_000, 0)

	balance, err := svc.Balance(ctx, testCompany, acctCash, day(31))
	require.NoError(t, err)
	require.Equal(t, int64(1_250_000), balance)
}

func TestHeaderBalanceRollsUpPostingSubtree(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	repo.post(acctCash, day(5), 400_000, 0)
	repo.post(acctBank, day(6), 350_000, 0)

	total, err := svc.Balance(ctx, testCompany, acctHeader, day(31))
	require.NoError(t, err)
	require.Equal(t, int64(750_000), total)
}

func TestPeriodActivityExcludesOpening(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	repo.openings = append(repo.openings, openingRow{
		ob:          OpeningBalance{CompanyID: testCompany, PeriodID: 10, AccountID: acctCash, Debit: 1_000_000},
		periodStart: day(1),
	})
	repo.post(acctCash, day(5), 250_000, 0)
	repo.post(acctCash, time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC), 99_000, 0)

	activity, err := svc.PeriodActivity(ctx, testCompany, acctCash, 10)
	require.NoError(t, err)
	require.Equal(t, int64(250_000), activity)

	_, err = svc.PeriodActivity(ctx, testCompany, acctHeader, 10)
	require.ErrorIs(t, err, shared.ErrNotPostingAccount)
}

func TestTrialBalanceNetsToZero(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	repo.post(acctCash, day(5), 500_000, 0)
	repo.post(acctSales, day(5), 0, 500_000)

	tb, err := svc.TrialBalance(ctx, testCompany, day(31))
	require.NoError(t, err)
	require.True(t, tb.Balanced())
	require.Equal(t, int64(500_000), tb.TotalDebit)
	require.Equal(t, int64(500_000), tb.TotalCredit)

	// Posting accounts only, ordered by code.
	require.Len(t, tb.Rows, 3)
	require.Equal(t, "1100", tb.Rows[0].Code)
	require.Equal(t, "4100", tb.Rows[2].Code)
	require.Equal(t, int64(500_000), tb.Rows[0].Balance)
	require.Equal(t, int64(-500_000), tb.Rows[2].Balance)
}

func TestHasBalance(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	ok, err := svc.HasBalance(ctx, testCompany, acctCash, day(31))
	require.NoError(t, err)
	require.False(t, ok)

	repo.post(acctCash, day(5), 100, 0)
	ok, err = svc.HasBalance(ctx, testCompany, acctCash, day(31))
	require.NoError(t, err)
	require.True(t, ok)

	// Header accounts never carry a balance of their own.
	ok, err = svc.HasBalance(ctx, testCompany, acctHeader, day(31))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetOpeningValidation(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	_, err := svc.SetOpening(ctx, OpeningBalance{CompanyID: testCompany, PeriodID: 10, AccountID: acctCash, Debit: -5})
	require.Error(t, err)

	_, err = svc.SetOpening(ctx, OpeningBalance{CompanyID: testCompany, PeriodID: 10, AccountID: acctCash, Debit: 5, Credit: 5})
	require.Error(t, err)

	_, err = svc.SetOpening(ctx, OpeningBalance{CompanyID: testCompany, PeriodID: 10, AccountID: acctHeader, Debit: 5})
	require.ErrorIs(t, err, shared.ErrNotPostingAccount)

	ob, err := svc.SetOpening(ctx, OpeningBalance{CompanyID: testCompany, PeriodID: 10, AccountID: acctCash, Debit: 1_000_000})
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), ob.Debit)

	listed, err := svc.ListOpenings(ctx, testCompany, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}
