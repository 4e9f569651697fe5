package mappings

import (
	"context"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// AccountSource verifies that a mapped account exists and accepts postings.
type AccountSource interface {
	IsPostingAccount(ctx context.Context, companyID, accountID int64) error
}

// Service decouples operational subsystems from per-company account codes.
// Every transaction-originating feature resolves a key here instead of
// carrying chart knowledge.
type Service struct {
	repo     Repository
	accounts AccountSource
}

// NewService constructs the mappings service.
func NewService(repo Repository, accounts AccountSource) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// Set binds or replaces the account for a (company, key) pair. The target
// must be an active posting account.
func (s *Service) Set(ctx context.Context, companyID int64, key SystemKey, accountID int64) (Mapping, error) {
	if !key.Valid() {
		return Mapping{}, shared.ErrUnknownKey
	}
	if s.accounts != nil {
		if err := s.accounts.IsPostingAccount(ctx, companyID, accountID); err != nil {
			return Mapping{}, err
		}
	}
	return s.repo.Upsert(ctx, Mapping{CompanyID: companyID, Key: key, AccountID: accountID})
}

// Resolve returns the account bound to the key, failing with ErrUnmappedKey
// when absent.
func (s *Service) Resolve(ctx context.Context, companyID int64, key SystemKey) (int64, error) {
	if !key.Valid() {
		return 0, shared.ErrUnknownKey
	}
	m, err := s.repo.Get(ctx, companyID, key)
	if err != nil {
		return 0, err
	}
	return m.AccountID, nil
}

// List returns every mapping of a company ordered by key.
func (s *Service) List(ctx context.Context, companyID int64) ([]Mapping, error) {
	return s.repo.ListByCompany(ctx, companyID)
}
