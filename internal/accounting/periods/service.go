package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
	internalshared "github.com/sawit-erp/sawit-erp/internal/shared"
)

// AuditPort records period lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// Service is the single authority on whether a date is postable.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the periods service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GenerateYear creates the twelve calendar-month periods of a year.
// Repeat calls are no-ops for months that already exist.
func (s *Service) GenerateYear(ctx context.Context, companyID int64, year int) ([]Period, error) {
	if year < 1990 || year > 2100 {
		return nil, fmt.Errorf("accounting: year %d out of range", year)
	}
	for month := time.January; month <= time.December; month++ {
		start, end := MonthWindow(year, month)
		period := Period{
			CompanyID: companyID,
			Year:      year,
			Month:     month,
			StartDate: start,
			EndDate:   end,
		}
		if err := s.repo.InsertIgnoringExisting(ctx, period); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByYear(ctx, companyID, year)
}

// Close marks a period closed. Closing is irreversible; closing an already
// closed period keeps the original close stamp.
func (s *Service) Close(ctx context.Context, companyID, periodID, actorID int64) (Period, error) {
	period, err := s.repo.Close(ctx, companyID, periodID, actorID, s.now())
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "period.close",
			Entity:   "fiscal_period",
			EntityID: fmt.Sprintf("%d", period.ID),
			Meta: map[string]any{
				"company_id": companyID,
				"year":       period.Year,
				"month":      int(period.Month),
			},
			At: s.now(),
		})
	}
	return period, nil
}

// PeriodForDate returns the period covering the date, failing with
// ErrNoPeriod when none exists.
func (s *Service) PeriodForDate(ctx context.Context, companyID int64, date time.Time) (Period, error) {
	return s.repo.FindByDate(ctx, companyID, date)
}

// EnsureDateOpen verifies the date falls inside an open period.
func (s *Service) EnsureDateOpen(ctx context.Context, companyID int64, date time.Time) error {
	period, err := s.repo.FindByDate(ctx, companyID, date)
	if err != nil {
		return err
	}
	if period.IsClosed {
		return shared.ErrPeriodClosed
	}
	return nil
}

// ListYear returns the periods of a company year ordered by month.
func (s *Service) ListYear(ctx context.Context, companyID int64, year int) ([]Period, error) {
	return s.repo.ListByYear(ctx, companyID, year)
}

// Get returns one period.
func (s *Service) Get(ctx context.Context, companyID, id int64) (Period, error) {
	return s.repo.GetByID(ctx, companyID, id)
}

// LatestClosedEnd exposes the end date of the most recently closed period.
func (s *Service) LatestClosedEnd(ctx context.Context, companyID int64) (time.Time, bool, error) {
	return s.repo.LatestClosedEnd(ctx, companyID)
}
