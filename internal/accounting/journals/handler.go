package journals

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sawit-erp/sawit-erp/internal/platform/httpx"
	"github.com/sawit-erp/sawit-erp/internal/shared"
)

// Handler exposes the journal ledger boundary operations.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

type lineRequest struct {
	AccountID   int64  `json:"accountId" validate:"required,gt=0"`
	Debit       int64  `json:"debit" validate:"gte=0"`
	Credit      int64  `json:"credit" validate:"gte=0"`
	Description string `json:"description"`
	Department  string `json:"dept"`
	CostCenter  string `json:"costCenter"`
}

type submitRequest struct {
	Date       string        `json:"date" validate:"required"`
	SourceType string        `json:"sourceType" validate:"required"`
	SourceID   string        `json:"sourceId"`
	Memo       string        `json:"memo"`
	Number     string        `json:"number"`
	Status     string        `json:"status"`
	Lines      []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type reverseRequest struct {
	Memo string `json:"memo"`
	Date string `json:"date"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
		return
	}
	sourceID := uuid.Nil
	if req.SourceID != "" {
		sourceID, err = uuid.Parse(req.SourceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "sourceId must be a UUID")
			return
		}
	}
	status := StatusPosted
	if req.Status != "" {
		status = EntryStatus(req.Status)
	}
	in := SubmitInput{
		CompanyID:  companyID,
		Date:       date,
		SourceType: req.SourceType,
		SourceID:   sourceID,
		Memo:       req.Memo,
		Number:     req.Number,
		Status:     status,
		CreatedBy:  shared.ActorFromContext(r.Context()),
	}
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
			Department:  line.Department,
			CostCenter:  line.CostCenter,
		})
	}
	entry, err := h.service.Submit(r.Context(), in)
	if err != nil {
		h.respondSubmitError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) respondSubmitError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpx.ProblemViolations(w, http.StatusBadRequest, "Journal Rejected", verr.Violations)
		return
	}
	h.logger.Warn("submit journal", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	companyID, entryID, ok := h.entryScope(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), companyID, entryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	companyID, entryID, ok := h.entryScope(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Post(r.Context(), companyID, entryID, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	companyID, entryID, ok := h.entryScope(w, r)
	if !ok {
		return
	}
	// Date and memo are optional, so a missing body means "reverse as of the
	// original date".
	var req reverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in := ReverseInput{
		CompanyID: companyID,
		EntryID:   entryID,
		ActorID:   shared.ActorFromContext(r.Context()),
		Memo:      req.Memo,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		in.Date = &date
	}
	entry, err := h.service.Reverse(r.Context(), in)
	if err != nil {
		h.respondSubmitError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	companyID, entryID, ok := h.entryScope(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDraft(r.Context(), companyID, entryID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) entryScope(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	companyID, ok := httpx.CompanyID(w, r)
	if !ok {
		return 0, 0, false
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return 0, 0, false
	}
	return companyID, entryID, true
}
