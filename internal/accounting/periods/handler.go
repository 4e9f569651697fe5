package periods

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sawit-erp/sawit-erp/internal/platform/httpx"
	"github.com/sawit-erp/sawit-erp/internal/shared"
)

// Handler exposes fiscal calendar endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers period routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listYear)
	r.Post("/generate", h.generateYear)
	r.Post("/{id}/close", h.closePeriod)
}

func (h *Handler) listYear(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "year query parameter required")
		return
	}
	list, err := h.service.ListYear(r.Context(), companyID, year)
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type generateRequest struct {
	Year int `json:"year"`
}

func (h *Handler) generateYear(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	list, err := h.service.GenerateYear(r.Context(), companyID, req.Year)
	if err != nil {
		h.logger.Error("generate periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, list)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	period, err := h.service.Close(r.Context(), companyID, id, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}
