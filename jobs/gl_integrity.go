package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sawit-erp/sawit-erp/internal/accounting/balances"
	"github.com/sawit-erp/sawit-erp/internal/accounting/companies"
)

// TrialBalanceSource builds a trial balance for one company.
type TrialBalanceSource interface {
	TrialBalance(ctx context.Context, companyID int64, asOf time.Time) (balances.TrialBalance, error)
}

// GLIntegrityJob sweeps every company's ledger and reports any company whose
// posted lines no longer net to zero. A failed sweep is an operator alarm,
// not something the job can repair.
type GLIntegrityJob struct {
	companies companies.Repository
	balances  TrialBalanceSource
	logger    *slog.Logger
}

// NewGLIntegrityJob constructs the integrity sweep job.
func NewGLIntegrityJob(repo companies.Repository, src TrialBalanceSource, logger *slog.Logger) *GLIntegrityJob {
	return &GLIntegrityJob{companies: repo, balances: src, logger: logger}
}

// Handle processes TaskTypeGLIntegrity tasks.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return asynq.SkipRetry
		}
		asOf = parsed
	}

	all, err := j.companies.List(ctx)
	if err != nil {
		return fmt.Errorf("jobs: list companies: %w", err)
	}

	unbalanced := 0
	for _, company := range all {
		tb, err := j.balances.TrialBalance(ctx, company.ID, asOf)
		if err != nil {
			j.logger.Error("gl integrity: build trial balance",
				slog.Int64("company_id", company.ID),
				slog.Any("error", err))
			unbalanced++
			continue
		}
		if !tb.Balanced() {
			j.logger.Error("gl integrity: ledger out of balance",
				slog.Int64("company_id", company.ID),
				slog.String("company", company.Code),
				slog.String("as_of", asOf.Format("2006-01-02")),
				slog.Int64("total_debit", tb.TotalDebit),
				slog.Int64("total_credit", tb.TotalCredit))
			unbalanced++
			continue
		}
		j.logger.Info("gl integrity: company balanced",
			slog.Int64("company_id", company.ID),
			slog.Int("accounts", len(tb.Rows)))
	}
	if unbalanced > 0 {
		return fmt.Errorf("jobs: gl integrity found %d companies out of balance", unbalanced)
	}
	return nil
}
