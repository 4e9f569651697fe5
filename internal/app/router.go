package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
	"github.com/sawit-erp/sawit-erp/internal/accounting/balances"
	"github.com/sawit-erp/sawit-erp/internal/accounting/companies"
	"github.com/sawit-erp/sawit-erp/internal/accounting/journals"
	"github.com/sawit-erp/sawit-erp/internal/accounting/mappings"
	"github.com/sawit-erp/sawit-erp/internal/accounting/periods"
	"github.com/sawit-erp/sawit-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CompaniesHandler *companies.Handler
	AccountsHandler  *accounts.Handler
	PeriodsHandler   *periods.Handler
	MappingsHandler  *mappings.Handler
	JournalsHandler  *journals.Handler
	BalancesHandler  *balances.Handler
	JobsHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router. Every ledger route lives under a
// company scope; the company master itself is read-only.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/companies", func(r chi.Router) {
		params.CompaniesHandler.MountRoutes(r)
		r.Route("/{companyID}", func(r chi.Router) {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
			r.Route("/periods", params.PeriodsHandler.MountRoutes)
			r.Route("/mappings", params.MappingsHandler.MountRoutes)
			r.Route("/journals", params.JournalsHandler.MountRoutes)
			r.Route("/balances", params.BalancesHandler.MountRoutes)
		})
	})

	if params.JobsHandler != nil {
		r.Route("/api/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
