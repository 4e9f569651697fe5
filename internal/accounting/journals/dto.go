package journals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LineInput describes one candidate journal line.
type LineInput struct {
	AccountID   int64
	Debit       int64
	Credit      int64
	Description string
	Department  string
	CostCenter  string
}

// SubmitInput groups fields required to create a journal entry. Number is
// auto-assigned from the per-company period sequence when empty. SourceID
// may be uuid.Nil for manual entries, which disables source idempotency.
type SubmitInput struct {
	CompanyID  int64
	Date       time.Time
	SourceType string
	SourceID   uuid.UUID
	Memo       string
	Number     string
	Status     EntryStatus
	CreatedBy  int64
	Lines      []LineInput
}

// ReverseInput wraps parameters for the reversal operation.
type ReverseInput struct {
	CompanyID int64
	EntryID   int64
	ActorID   int64
	Memo      string
	Date      *time.Time
}

// ValidationError carries every violated submission rule so a caller can
// present one combined failure. Nothing is persisted when it is returned.
// Sentinel causes (ErrPeriodClosed, ErrAccountNotFound, ...) stay reachable
// through errors.Is via Unwrap.
type ValidationError struct {
	Violations []string
	causes     []error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "accounting: journal rejected: " + strings.Join(e.Violations, "; ")
}

// Unwrap exposes sentinel causes for errors.Is matching.
func (e *ValidationError) Unwrap() []error {
	return e.causes
}

func (e *ValidationError) add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

func (e *ValidationError) addCause(cause error, format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
	e.causes = append(e.causes, cause)
}

func (e *ValidationError) empty() bool {
	return len(e.Violations) == 0
}

// validateShape collects structural violations that need no storage access.
// Account and period rules are checked transactionally by the service.
func (in SubmitInput) validateShape() *ValidationError {
	verr := &ValidationError{}
	if in.CompanyID == 0 {
		verr.add("company required")
	}
	if in.Date.IsZero() {
		verr.add("entry date required")
	}
	if strings.TrimSpace(in.SourceType) == "" {
		verr.add("source type required")
	}
	if in.Status != StatusDraft && in.Status != StatusPosted {
		verr.add("desired status must be DRAFT or POSTED")
	}
	if len(in.Lines) < 2 {
		verr.add("at least two lines required")
	}
	var debit, credit int64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			verr.add("line %d: account required", idx+1)
		}
		if line.Debit < 0 || line.Credit < 0 {
			verr.add("line %d: negative amount", idx+1)
		}
		if line.Debit > 0 && line.Credit > 0 {
			verr.add("line %d: cannot carry both debit and credit", idx+1)
		}
		if line.Debit == 0 && line.Credit == 0 {
			verr.add("line %d: amount required", idx+1)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if debit != credit {
		verr.add("unbalanced: debit %d != credit %d", debit, credit)
	}
	return verr
}
