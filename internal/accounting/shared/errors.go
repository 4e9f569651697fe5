package shared

import "errors"

var (
	// ErrAccountNotFound indicates the account does not exist in the company.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrDuplicateCode indicates the account code is taken within the company.
	ErrDuplicateCode = errors.New("accounting: account code already exists")
	// ErrParentNotFound indicates the parent account is missing.
	ErrParentNotFound = errors.New("accounting: parent account not found")
	// ErrClassMismatch indicates the account class conflicts with its parent.
	ErrClassMismatch = errors.New("accounting: account class conflicts with parent")
	// ErrCodeImmutable indicates the code can no longer change.
	ErrCodeImmutable = errors.New("accounting: account code immutable after posting")
	// ErrCannotDeactivate indicates the subtree still carries a balance.
	ErrCannotDeactivate = errors.New("accounting: account subtree carries a balance")
	// ErrNotPostingAccount indicates a header account was targeted by a line.
	ErrNotPostingAccount = errors.New("accounting: account does not accept postings")

	// ErrNoPeriod indicates no fiscal period covers the date.
	ErrNoPeriod = errors.New("accounting: no fiscal period for date")
	// ErrPeriodClosed indicates the covering period is closed.
	ErrPeriodClosed = errors.New("accounting: fiscal period closed")
	// ErrPeriodNotFound indicates the period does not exist.
	ErrPeriodNotFound = errors.New("accounting: fiscal period not found")

	// ErrUnmappedKey indicates no system account is bound for the key.
	ErrUnmappedKey = errors.New("accounting: system account key not mapped")
	// ErrUnknownKey indicates the key is outside the supported set.
	ErrUnknownKey = errors.New("accounting: unknown system account key")

	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("accounting: journal entry not found")
	// ErrAlreadyPosted indicates the entry left DRAFT already.
	ErrAlreadyPosted = errors.New("accounting: journal entry already posted")
	// ErrNotPosted indicates the operation requires a POSTED entry.
	ErrNotPosted = errors.New("accounting: journal entry is not posted")
	// ErrNotDraft indicates the operation requires a DRAFT entry.
	ErrNotDraft = errors.New("accounting: journal entry is not a draft")
	// ErrNumberConflict indicates the entry number is taken in the company.
	ErrNumberConflict = errors.New("accounting: journal number conflict")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("accounting: source already posted")

	// ErrCompanyNotFound indicates an unknown company id.
	ErrCompanyNotFound = errors.New("accounting: company not found")
)
