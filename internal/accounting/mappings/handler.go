package mappings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sawit-erp/sawit-erp/internal/platform/httpx"
)

// Handler exposes system account map endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers mapping routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/{key}", h.set)
	r.Get("/{key}", h.resolve)
}

type setRequest struct {
	AccountID int64 `json:"accountId" validate:"required,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list mappings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	var req setRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	mapping, err := h.service.Set(r.Context(), companyID, SystemKey(chi.URLParam(r, "key")), req.AccountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapping)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	accountID, err := h.service.Resolve(r.Context(), companyID, SystemKey(chi.URLParam(r, "key")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"accountId": accountID})
}
