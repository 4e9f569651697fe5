package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
	internalshared "github.com/sawit-erp/sawit-erp/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// Service coordinates the journal entry state machine: submit, post,
// reverse, and draft deletion.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the ledger service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// maxNumberAttempts bounds the retry loop for auto-assigned entry numbers
// racing concurrent submissions.
const maxNumberAttempts = 3

// Submit validates and persists a new journal entry. All violated rules are
// returned together as a ValidationError; nothing is persisted on failure.
// When the (company, sourceType, sourceID) key already carries an entry, that
// entry is returned unchanged, including under a concurrent-resubmission
// race resolved by the storage unique constraint.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (JournalEntry, error) {
	if in.Status == "" {
		in.Status = StatusPosted
	}
	if verr := in.validateShape(); !verr.empty() {
		return JournalEntry{}, verr
	}
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		entry, created, err := s.submitOnce(ctx, in)
		switch {
		case err == nil:
			if created && entry.Status == StatusPosted {
				s.recordAudit(ctx, in.CreatedBy, "journal.post", entry)
			}
			return entry, nil
		case errors.Is(err, shared.ErrSourceConflict) && in.SourceID != uuid.Nil:
			// The earlier writer won the source race; hand back its entry.
			return s.repo.FindBySource(ctx, in.CompanyID, in.SourceType, in.SourceID)
		case errors.Is(err, shared.ErrNumberConflict) && in.Number == "":
			continue
		default:
			return JournalEntry{}, err
		}
	}
	return JournalEntry{}, shared.ErrNumberConflict
}

func (s *Service) submitOnce(ctx context.Context, in SubmitInput) (JournalEntry, bool, error) {
	var entry JournalEntry
	created := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if in.SourceID != uuid.Nil {
			existing, err := tx.FindBySource(ctx, in.CompanyID, in.SourceType, in.SourceID)
			if err == nil {
				entry = existing
				return nil
			}
			if !errors.Is(err, shared.ErrEntryNotFound) {
				return err
			}
		}
		inserted, err := s.createEntry(ctx, tx, in, nil)
		if err != nil {
			return err
		}
		entry = inserted
		created = true
		return nil
	})
	if err != nil {
		return JournalEntry{}, false, err
	}
	return entry, created, nil
}

// createEntry runs the full validation and commit path shared by Submit and
// Reverse: account eligibility, exact balance, open period, numbering.
func (s *Service) createEntry(ctx context.Context, tx TxRepository, in SubmitInput, reversalOf *int64) (JournalEntry, error) {
	if verr := in.validateShape(); !verr.empty() {
		return JournalEntry{}, verr
	}
	verr := &ValidationError{}

	period, periodErr := tx.PeriodForDateForUpdate(ctx, in.CompanyID, in.Date)
	switch {
	case errors.Is(periodErr, shared.ErrNoPeriod):
		verr.addCause(shared.ErrNoPeriod, "no fiscal period covers %s", in.Date.Format("2006-01-02"))
	case periodErr != nil:
		return JournalEntry{}, periodErr
	case period.IsClosed:
		verr.addCause(shared.ErrPeriodClosed, "fiscal period %d-%02d is closed", period.Year, int(period.Month))
	}

	ids := make([]int64, 0, len(in.Lines))
	seen := make(map[int64]bool, len(in.Lines))
	for _, line := range in.Lines {
		if line.AccountID != 0 && !seen[line.AccountID] {
			seen[line.AccountID] = true
			ids = append(ids, line.AccountID)
		}
	}
	accts, err := tx.AccountsByID(ctx, in.CompanyID, ids)
	if err != nil {
		return JournalEntry{}, err
	}
	for idx, line := range in.Lines {
		account, ok := accts[line.AccountID]
		if !ok {
			verr.addCause(shared.ErrAccountNotFound, "line %d: account %d not found in company", idx+1, line.AccountID)
			continue
		}
		if !account.IsPosting {
			verr.addCause(shared.ErrNotPostingAccount, "line %d: account %s is a header account", idx+1, account.Code)
		}
		if !account.IsActive {
			verr.add("line %d: account %s is inactive", idx+1, account.Code)
		}
	}
	if !verr.empty() {
		return JournalEntry{}, verr
	}

	number := in.Number
	if number == "" {
		seq, err := tx.NextSequence(ctx, in.CompanyID, period.Year, period.Month)
		if err != nil {
			return JournalEntry{}, err
		}
		number = fmt.Sprintf("JU-%d-%02d-%04d", period.Year, int(period.Month), seq)
	}

	candidate := JournalEntry{
		CompanyID:  in.CompanyID,
		Number:     number,
		Date:       in.Date,
		SourceType: in.SourceType,
		SourceID:   in.SourceID,
		Memo:       in.Memo,
		Status:     in.Status,
		ReversalOf: reversalOf,
		CreatedBy:  in.CreatedBy,
	}
	if in.Status == StatusPosted {
		now := s.now()
		candidate.PostedAt = &now
	}
	inserted, err := tx.InsertEntry(ctx, candidate)
	if err != nil {
		return JournalEntry{}, err
	}
	lines, err := tx.InsertLines(ctx, inserted.ID, in.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	inserted.Lines = lines
	return inserted, nil
}

// Post transitions a DRAFT to POSTED, re-validating balance and period
// openness at transition time because the period may have closed since the
// draft was created.
func (s *Service) Post(ctx context.Context, companyID, entryID, actorID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return shared.ErrAlreadyPosted
		}
		lines, err := tx.GetLines(ctx, current.ID)
		if err != nil {
			return err
		}
		var debit, credit int64
		for _, line := range lines {
			debit += line.Debit
			credit += line.Credit
		}
		if debit != credit {
			verr := &ValidationError{}
			verr.add("unbalanced: debit %d != credit %d", debit, credit)
			return verr
		}
		period, err := tx.PeriodForDateForUpdate(ctx, companyID, current.Date)
		if err != nil {
			return err
		}
		if period.IsClosed {
			return shared.ErrPeriodClosed
		}
		now := s.now()
		if err := tx.UpdateStatus(ctx, current.ID, StatusPosted, &now); err != nil {
			return err
		}
		current.Status = StatusPosted
		current.PostedAt = &now
		current.Lines = lines
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.recordAudit(ctx, actorID, "journal.post", entry)
	return entry, nil
}

// Reverse counters a POSTED entry with a new, independently POSTED mirror
// entry (debit and credit swapped on every line) and marks the original
// REVERSED. The mirror runs through the same validation path as Submit.
// Reversing the same entry twice yields the original reversal.
func (s *Service) Reverse(ctx context.Context, in ReverseInput) (JournalEntry, error) {
	if in.EntryID == 0 {
		return JournalEntry{}, errors.New("accounting: entry id required")
	}
	var reversal JournalEntry
	created := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, in.CompanyID, in.EntryID)
		if err != nil {
			return err
		}
		if original.Status == StatusReversed {
			existing, err := tx.FindBySource(ctx, in.CompanyID, SourceTypeReversal, reversalSourceID(original.ID))
			if err != nil {
				if errors.Is(err, shared.ErrEntryNotFound) {
					return shared.ErrNotPosted
				}
				return err
			}
			reversal = existing
			return nil
		}
		if original.Status != StatusPosted {
			return shared.ErrNotPosted
		}
		lines, err := tx.GetLines(ctx, original.ID)
		if err != nil {
			return err
		}
		date := original.Date
		if in.Date != nil {
			date = *in.Date
		}
		mirror := SubmitInput{
			CompanyID:  in.CompanyID,
			Date:       date,
			SourceType: SourceTypeReversal,
			SourceID:   reversalSourceID(original.ID),
			Memo:       defaultReversalMemo(in.Memo, original.Number),
			Status:     StatusPosted,
			CreatedBy:  in.ActorID,
			Lines:      mirrorLines(lines),
		}
		inserted, err := s.createEntry(ctx, tx, mirror, &original.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, original.ID, StatusReversed, nil); err != nil {
			return err
		}
		reversal = inserted
		created = true
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrSourceConflict) {
			return s.repo.FindBySource(ctx, in.CompanyID, SourceTypeReversal, reversalSourceID(in.EntryID))
		}
		return JournalEntry{}, err
	}
	if created {
		s.recordAudit(ctx, in.ActorID, "journal.reverse", reversal)
	}
	return reversal, nil
}

// DeleteDraft hard-deletes an entry that never left DRAFT.
func (s *Service) DeleteDraft(ctx context.Context, companyID, entryID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return shared.ErrNotDraft
		}
		return tx.DeleteEntry(ctx, current.ID)
	})
}

// Get returns one entry with its lines.
func (s *Service) Get(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	return s.repo.GetWithLines(ctx, companyID, entryID)
}

// List returns the company's entries, newest number first.
func (s *Service) List(ctx context.Context, companyID int64) ([]JournalEntry, error) {
	return s.repo.List(ctx, companyID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entry JournalEntry) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalshared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Meta: map[string]any{
			"company_id":  entry.CompanyID,
			"number":      entry.Number,
			"source_type": entry.SourceType,
		},
		At: s.now(),
	})
}

func mirrorLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
			Department:  line.Department,
			CostCenter:  line.CostCenter,
		})
	}
	return out
}

// reversalSourceID derives a stable source key per original entry so the
// source uniqueness constraint makes double reversal idempotent.
func reversalSourceID(entryID int64) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "journal-reversal:%d", entryID))
}

func defaultReversalMemo(memo, number string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of %s", number)
}
