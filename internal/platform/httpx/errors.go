// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

// RespondError maps ledger errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrParentNotFound),
		errors.Is(err, shared.ErrEntryNotFound),
		errors.Is(err, shared.ErrPeriodNotFound),
		errors.Is(err, shared.ErrNoPeriod),
		errors.Is(err, shared.ErrCompanyNotFound),
		errors.Is(err, shared.ErrUnmappedKey):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateCode),
		errors.Is(err, shared.ErrNumberConflict),
		errors.Is(err, shared.ErrSourceConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrUnknownKey):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, shared.ErrPeriodClosed),
		errors.Is(err, shared.ErrAlreadyPosted),
		errors.Is(err, shared.ErrNotPosted),
		errors.Is(err, shared.ErrNotDraft),
		errors.Is(err, shared.ErrClassMismatch),
		errors.Is(err, shared.ErrCodeImmutable),
		errors.Is(err, shared.ErrCannotDeactivate),
		errors.Is(err, shared.ErrNotPostingAccount):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// CompanyID extracts the company scope from the request path. Every ledger
// route is mounted under /companies/{companyID}; a request without a valid
// scope gets a 400 and false.
func CompanyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "companyID")
	if raw == "" {
		raw = r.Header.Get("X-Company-ID")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		Problem(w, http.StatusBadRequest, "Bad Request", "company scope required")
		return 0, false
	}
	return id, true
}
