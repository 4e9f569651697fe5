package balances

import (
	"time"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
)

// OpeningBalance is the balance carried into a period before any activity
// within it. Well-formed data has exactly one nonzero side.
type OpeningBalance struct {
	CompanyID int64
	PeriodID  int64
	AccountID int64
	Debit     int64
	Credit    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountBalance is one posting account's position as of a date.
type AccountBalance struct {
	AccountID  int64
	Code       string
	Name       string
	Class      accounts.AccountClass
	NormalSide accounts.NormalSide
	Opening    int64
	Debit      int64
	Credit     int64
	// Balance is oriented to the account's normal side: positive means the
	// account grew on its natural side.
	Balance int64
}

// TrialBalanceRow is one account's debit-signed balance: positive for a net
// debit position, negative for a net credit position.
type TrialBalanceRow struct {
	AccountID int64
	Code      string
	Name      string
	Class     accounts.AccountClass
	Balance   int64
}

// TrialBalance aggregates every posting account of a company as of a date.
// For a history of valid entries TotalDebit equals TotalCredit.
type TrialBalance struct {
	CompanyID   int64
	AsOf        time.Time
	Rows        []TrialBalanceRow
	TotalDebit  int64
	TotalCredit int64
}

// Balanced reports whether debit and credit positions net to zero.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit == tb.TotalCredit
}
