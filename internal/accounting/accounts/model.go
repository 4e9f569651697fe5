package accounts

import "time"

// AccountClass enumerates chart of accounts categories.
type AccountClass string

const (
	ClassAsset        AccountClass = "ASSET"
	ClassLiability    AccountClass = "LIABILITY"
	ClassEquity       AccountClass = "EQUITY"
	ClassRevenue      AccountClass = "REVENUE"
	ClassCOGS         AccountClass = "COGS"
	ClassExpense      AccountClass = "EXPENSE"
	ClassOtherIncome  AccountClass = "OTHER_INCOME"
	ClassOtherExpense AccountClass = "OTHER_EXPENSE"
)

// NormalSide is the side on which an account balance increases.
type NormalSide string

const (
	SideDebit  NormalSide = "DEBIT"
	SideCredit NormalSide = "CREDIT"
)

// Valid reports whether the class is one of the supported categories.
func (c AccountClass) Valid() bool {
	switch c {
	case ClassAsset, ClassLiability, ClassEquity, ClassRevenue, ClassCOGS,
		ClassExpense, ClassOtherIncome, ClassOtherExpense:
		return true
	}
	return false
}

// DefaultSide returns the conventional normal side for the class.
func (c AccountClass) DefaultSide() NormalSide {
	switch c {
	case ClassAsset, ClassCOGS, ClassExpense, ClassOtherExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Account models a chart of accounts node scoped to one company.
// Header accounts (IsPosting=false) only roll up their subtree and never
// appear on journal lines.
type Account struct {
	ID         int64
	CompanyID  int64
	Code       string
	Name       string
	Class      AccountClass
	NormalSide NormalSide
	IsPosting  bool
	IsCashBank bool
	TaxCode    string
	ParentID   *int64
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
