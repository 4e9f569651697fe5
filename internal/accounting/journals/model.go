package journals

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus enumerates the journal entry lifecycle. A DRAFT may be edited
// or deleted; a POSTED entry is immutable and only ever countered by a
// reversal; REVERSED is the terminal state of a countered entry.
type EntryStatus string

const (
	StatusDraft    EntryStatus = "DRAFT"
	StatusPosted   EntryStatus = "POSTED"
	StatusReversed EntryStatus = "REVERSED"
)

// SourceTypeReversal marks entries produced by the reversal operation.
const SourceTypeReversal = "REVERSAL"

// JournalEntry is a balanced double-entry record scoped to one company.
type JournalEntry struct {
	ID         int64
	CompanyID  int64
	Number     string
	Date       time.Time
	SourceType string
	SourceID   uuid.UUID
	Memo       string
	Status     EntryStatus
	PostedAt   *time.Time
	ReversalOf *int64
	CreatedBy  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []JournalLine
}

// JournalLine carries a debit or credit amount in minor units against a
// posting account. Exactly one of Debit and Credit is nonzero.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Debit       int64
	Credit      int64
	Description string
	Department  string
	CostCenter  string
	CreatedAt   time.Time
}
