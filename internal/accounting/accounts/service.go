package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// BalanceChecker reports whether a posting account carries a balance as of a
// date. Implemented by the balance engine; accounts only needs the yes/no.
type BalanceChecker interface {
	HasBalance(ctx context.Context, companyID, accountID int64, asOf time.Time) (bool, error)
}

// ClosedPeriodSource exposes the end of the most recently closed period.
type ClosedPeriodSource interface {
	LatestClosedEnd(ctx context.Context, companyID int64) (time.Time, bool, error)
}

// Service manages the chart of accounts.
type Service struct {
	repo     Repository
	balances BalanceChecker
	periods  ClosedPeriodSource
}

// NewService constructs the accounts service. The balance checker and period
// source may be nil; the deactivation guard is then skipped.
func NewService(repo Repository, balances BalanceChecker, periods ClosedPeriodSource) *Service {
	return &Service{repo: repo, balances: balances, periods: periods}
}

// WithBalanceGuard wires the deactivation guard. The balance engine itself
// reads the chart, so the two are connected after both are built.
func (s *Service) WithBalanceGuard(balances BalanceChecker, periods ClosedPeriodSource) {
	s.balances = balances
	s.periods = periods
}

// IsPostingAccount returns nil when the account exists, is active, and
// accepts postings.
func (s *Service) IsPostingAccount(ctx context.Context, companyID, accountID int64) error {
	account, err := s.repo.GetByID(ctx, companyID, accountID)
	if err != nil {
		return err
	}
	if !account.IsPosting || !account.IsActive {
		return shared.ErrNotPostingAccount
	}
	return nil
}

// CreateInput carries fields for a new account.
type CreateInput struct {
	CompanyID  int64
	Code       string
	Name       string
	Class      AccountClass
	NormalSide NormalSide
	IsPosting  bool
	IsCashBank bool
	TaxCode    string
	ParentCode string
}

// Create validates and inserts a new account. The parent, when given, must
// exist in the same company and carry the same class.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return Account{}, errors.New("accounting: account code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Account{}, errors.New("accounting: account name required")
	}
	if !in.Class.Valid() {
		return Account{}, errors.New("accounting: unknown account class")
	}
	side := in.NormalSide
	if side == "" {
		side = in.Class.DefaultSide()
	}
	account := Account{
		CompanyID:  in.CompanyID,
		Code:       code,
		Name:       strings.TrimSpace(in.Name),
		Class:      in.Class,
		NormalSide: side,
		IsPosting:  in.IsPosting,
		IsCashBank: in.IsCashBank,
		TaxCode:    in.TaxCode,
	}
	if parentCode := strings.TrimSpace(in.ParentCode); parentCode != "" {
		parent, err := s.repo.GetByCode(ctx, in.CompanyID, parentCode)
		if err != nil {
			if errors.Is(err, shared.ErrAccountNotFound) {
				return Account{}, shared.ErrParentNotFound
			}
			return Account{}, err
		}
		if parent.Class != in.Class {
			return Account{}, shared.ErrClassMismatch
		}
		account.ParentID = &parent.ID
	}
	return s.repo.Insert(ctx, account)
}

// Rename updates code and name. The code is immutable once any posted line
// references the account.
func (s *Service) Rename(ctx context.Context, companyID, id int64, code, name string) (Account, error) {
	current, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Account{}, err
	}
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return Account{}, errors.New("accounting: code and name required")
	}
	if code != current.Code {
		posted, err := s.repo.HasPostedLines(ctx, id)
		if err != nil {
			return Account{}, err
		}
		if posted {
			return Account{}, shared.ErrCodeImmutable
		}
	}
	if err := s.repo.Rename(ctx, companyID, id, code, name); err != nil {
		return Account{}, err
	}
	return s.repo.GetByID(ctx, companyID, id)
}

// Deactivate marks the account inactive. Deactivation is refused while any
// posting account in the subtree carries a nonzero balance as of the end of
// the latest closed period, or as of now when no period has been closed yet;
// history stays valid either way.
func (s *Service) Deactivate(ctx context.Context, companyID, id int64) error {
	if _, err := s.repo.GetByID(ctx, companyID, id); err != nil {
		return err
	}
	if s.balances != nil && s.periods != nil {
		asOf, ok, err := s.periods.LatestClosedEnd(ctx, companyID)
		if err != nil {
			return err
		}
		if !ok {
			asOf = time.Now().UTC()
		}
		subtree, err := s.PostingSubtree(ctx, companyID, id)
		if err != nil {
			return err
		}
		for _, node := range subtree {
			carries, err := s.balances.HasBalance(ctx, companyID, node.ID, asOf)
			if err != nil {
				return err
			}
			if carries {
				return shared.ErrCannotDeactivate
			}
		}
	}
	return s.repo.SetActive(ctx, companyID, id, false)
}

// Activate re-enables a deactivated account.
func (s *Service) Activate(ctx context.Context, companyID, id int64) error {
	return s.repo.SetActive(ctx, companyID, id, true)
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, companyID, id int64) (Account, error) {
	return s.repo.GetByID(ctx, companyID, id)
}

// ResolveByCode returns the account carrying the code within the company.
func (s *Service) ResolveByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	return s.repo.GetByCode(ctx, companyID, strings.TrimSpace(code))
}

// List returns the company's full chart ordered by code.
func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// PostingSubtree returns every posting account under the node, the node
// included when it posts. Traversal is iterative so a malformed parent chain
// cannot blow the stack; a node is visited at most once.
func (s *Service) PostingSubtree(ctx context.Context, companyID, rootID int64) ([]Account, error) {
	all, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]Account, len(all))
	children := make(map[int64][]int64, len(all))
	for _, account := range all {
		byID[account.ID] = account
		if account.ParentID != nil {
			children[*account.ParentID] = append(children[*account.ParentID], account.ID)
		}
	}
	if _, ok := byID[rootID]; !ok {
		return nil, shared.ErrAccountNotFound
	}
	var posting []Account
	seen := make(map[int64]bool, len(all))
	stack := []int64{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		node := byID[id]
		if node.IsPosting {
			posting = append(posting, node)
		}
		stack = append(stack, children[id]...)
	}
	return posting, nil
}
