package balances

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
	"github.com/sawit-erp/sawit-erp/internal/accounting/periods"
	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// AccountDirectory exposes the chart reads the balance engine needs.
// Implemented by the accounts service.
type AccountDirectory interface {
	Get(ctx context.Context, companyID, id int64) (accounts.Account, error)
	List(ctx context.Context, companyID int64) ([]accounts.Account, error)
	PostingSubtree(ctx context.Context, companyID, rootID int64) ([]accounts.Account, error)
}

// PeriodSource resolves fiscal periods for activity windows.
type PeriodSource interface {
	Get(ctx context.Context, companyID, id int64) (periods.Period, error)
}

// Service derives account balances from opening balances plus posted ledger
// lines. It never mutates ledger state.
type Service struct {
	repo     Repository
	accounts AccountDirectory
	periods  PeriodSource
}

// NewService constructs the balance engine.
func NewService(repo Repository, accounts AccountDirectory, periods PeriodSource) *Service {
	return &Service{repo: repo, accounts: accounts, periods: periods}
}

// Balance returns the account's position as of the date, oriented to its
// normal side. A header account's balance is the sum of its full posting
// subtree, computed iteratively over the chart tree.
func (s *Service) Balance(ctx context.Context, companyID, accountID int64, asOf time.Time) (int64, error) {
	account, err := s.accounts.Get(ctx, companyID, accountID)
	if err != nil {
		return 0, err
	}
	if account.IsPosting {
		return s.postingBalance(ctx, companyID, account, asOf)
	}
	subtree, err := s.accounts.PostingSubtree(ctx, companyID, accountID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, node := range subtree {
		balance, err := s.postingBalance(ctx, companyID, node, asOf)
		if err != nil {
			return 0, err
		}
		total += balance
	}
	return total, nil
}

// postingBalance = opening carried into the period containing asOf (when an
// opening row applies) plus the signed posted line sum through asOf.
func (s *Service) postingBalance(ctx context.Context, companyID int64, account accounts.Account, asOf time.Time) (int64, error) {
	opening, periodStart, found, err := s.repo.LatestOpening(ctx, companyID, account.ID, asOf)
	if err != nil {
		return 0, err
	}
	from := time.Time{}
	var base int64
	if found {
		from = periodStart
		base = orient(account.NormalSide, opening.Debit, opening.Credit)
	}
	debit, credit, err := s.repo.SumPostedLines(ctx, companyID, account.ID, from, asOf)
	if err != nil {
		return 0, err
	}
	return base + orient(account.NormalSide, debit, credit), nil
}

// PeriodActivity returns the signed delta within one period only, excluding
// the opening balance.
func (s *Service) PeriodActivity(ctx context.Context, companyID, accountID, periodID int64) (int64, error) {
	account, err := s.accounts.Get(ctx, companyID, accountID)
	if err != nil {
		return 0, err
	}
	if !account.IsPosting {
		return 0, shared.ErrNotPostingAccount
	}
	period, err := s.periods.Get(ctx, companyID, periodID)
	if err != nil {
		return 0, err
	}
	debit, credit, err := s.repo.SumPostedLines(ctx, companyID, accountID, period.StartDate, period.EndDate)
	if err != nil {
		return 0, err
	}
	return orient(account.NormalSide, debit, credit), nil
}

// TrialBalance computes the debit-signed balance of every posting account.
// The totals netting to zero is the ledger's standing health check.
func (s *Service) TrialBalance(ctx context.Context, companyID int64, asOf time.Time) (TrialBalance, error) {
	all, err := s.accounts.List(ctx, companyID)
	if err != nil {
		return TrialBalance{}, err
	}
	result := TrialBalance{CompanyID: companyID, AsOf: asOf}
	for _, account := range all {
		if !account.IsPosting {
			continue
		}
		oriented, err := s.postingBalance(ctx, companyID, account, asOf)
		if err != nil {
			return TrialBalance{}, err
		}
		signed := oriented
		if account.NormalSide == accounts.SideCredit {
			signed = -oriented
		}
		result.Rows = append(result.Rows, TrialBalanceRow{
			AccountID: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Class:     account.Class,
			Balance:   signed,
		})
		if signed > 0 {
			result.TotalDebit += signed
		} else {
			result.TotalCredit += -signed
		}
	}
	sort.Slice(result.Rows, func(i, j int) bool { return result.Rows[i].Code < result.Rows[j].Code })
	return result, nil
}

// HasBalance reports whether the posting account carries a nonzero balance
// as of the date. Used by the chart to guard deactivation.
func (s *Service) HasBalance(ctx context.Context, companyID, accountID int64, asOf time.Time) (bool, error) {
	account, err := s.accounts.Get(ctx, companyID, accountID)
	if err != nil {
		return false, err
	}
	if !account.IsPosting {
		return false, nil
	}
	balance, err := s.postingBalance(ctx, companyID, account, asOf)
	if err != nil {
		return false, err
	}
	return balance != 0, nil
}

// SetOpening records the balance carried into a period for one account
// during setup or migration.
func (s *Service) SetOpening(ctx context.Context, ob OpeningBalance) (OpeningBalance, error) {
	if ob.Debit < 0 || ob.Credit < 0 {
		return OpeningBalance{}, errors.New("accounting: opening amounts must be non-negative")
	}
	if ob.Debit > 0 && ob.Credit > 0 {
		return OpeningBalance{}, errors.New("accounting: opening balance must carry exactly one side")
	}
	account, err := s.accounts.Get(ctx, ob.CompanyID, ob.AccountID)
	if err != nil {
		return OpeningBalance{}, err
	}
	if !account.IsPosting {
		return OpeningBalance{}, shared.ErrNotPostingAccount
	}
	return s.repo.UpsertOpening(ctx, ob)
}

// ListOpenings returns the opening rows captured for a period.
func (s *Service) ListOpenings(ctx context.Context, companyID, periodID int64) ([]OpeningBalance, error) {
	return s.repo.ListOpenings(ctx, companyID, periodID)
}

// orient signs a debit/credit pair to the account's normal side.
func orient(side accounts.NormalSide, debit, credit int64) int64 {
	if side == accounts.SideCredit {
		return credit - debit
	}
	return debit - credit
}
