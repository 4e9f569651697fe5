package balances

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/sawit-erp/sawit-erp/internal/platform/httpx"
)

// Handler exposes balance engine reads.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   *Cache
	group   singleflight.Group
}

// NewHandler constructs a Handler instance. Cache may be nil.
func NewHandler(logger *slog.Logger, service *Service, cache *Cache) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers balance routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts/{id}", h.accountBalance)
	r.Get("/accounts/{id}/activity", h.periodActivity)
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/trial-balance.csv", h.trialBalanceCSV)
	r.Put("/openings", h.setOpening)
	r.Get("/openings", h.listOpenings)
}

func asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "asOf must be YYYY-MM-DD")
		return
	}
	balance, err := h.service.Balance(r.Context(), companyID, accountID, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"asOf":      asOf.Format("2006-01-02"),
		"balance":   balance,
	})
}

func (h *Handler) periodActivity(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("periodId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "periodId query parameter required")
		return
	}
	activity, err := h.service.PeriodActivity(r.Context(), companyID, accountID, periodID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"periodId":  periodID,
		"activity":  activity,
	})
}

// buildTrialBalance consults the cache, then collapses concurrent identical
// builds through singleflight before hitting storage.
func (h *Handler) buildTrialBalance(r *http.Request, companyID int64, asOf time.Time) (TrialBalance, error) {
	if tb, ok := h.cache.GetTrialBalance(r.Context(), companyID, asOf); ok {
		return tb, nil
	}
	key := fmt.Sprintf("%d:%s", companyID, asOf.Format("2006-01-02"))
	value, err, _ := h.group.Do(key, func() (any, error) {
		tb, err := h.service.TrialBalance(r.Context(), companyID, asOf)
		if err != nil {
			return nil, err
		}
		h.cache.PutTrialBalance(r.Context(), tb)
		return tb, nil
	})
	if err != nil {
		return TrialBalance{}, err
	}
	return value.(TrialBalance), nil
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "asOf must be YYYY-MM-DD")
		return
	}
	tb, err := h.buildTrialBalance(r, companyID, asOf)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) trialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "asOf must be YYYY-MM-DD")
		return
	}
	tb, err := h.buildTrialBalance(r, companyID, asOf)
	if err != nil {
		h.logger.Error("trial balance csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=trial-balance-%d-%s.csv", companyID, asOf.Format("2006-01-02")))
	if err := WriteTrialBalanceCSV(w, tb); err != nil {
		h.logger.Error("stream trial balance csv", slog.Any("error", err))
	}
}

type openingRequest struct {
	PeriodID  int64 `json:"periodId"`
	AccountID int64 `json:"accountId"`
	Debit     int64 `json:"debit"`
	Credit    int64 `json:"credit"`
}

func (h *Handler) setOpening(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	var req openingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	ob, err := h.service.SetOpening(r.Context(), OpeningBalance{
		CompanyID: companyID,
		PeriodID:  req.PeriodID,
		AccountID: req.AccountID,
		Debit:     req.Debit,
		Credit:    req.Credit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ob)
}

func (h *Handler) listOpenings(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("periodId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "periodId query parameter required")
		return
	}
	openings, err := h.service.ListOpenings(r.Context(), companyID, periodID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, openings)
}
