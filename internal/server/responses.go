package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/logger"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string      `json:"error"`
	Code  ledger.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapError(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: ledger.CodeOf(err)})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// Rule codes reported as 409 Conflict.
var conflictCodes = map[ledger.Code]bool{
	ledger.CodeDuplicateAccountCode: true,
	ledger.CodeDuplicateAccountName: true,
	ledger.CodeCurrencyAlreadySet:   true,
	ledger.CodeDuplicateCurrency:    true,
	ledger.CodeDuplicateRate:        true,
	ledger.CodeDuplicateVoucher:     true,
	ledger.CodeDuplicateTemplate:    true,
}

func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case conflictCodes[ledger.CodeOf(err)]:
		return http.StatusConflict
	case errors.Is(err, ledger.ErrIllegalOperation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}

func pathParam(r *http.Request, key string) string {
	v, err := url.PathUnescape(chi.URLParam(r, key))
	if err != nil {
		return chi.URLParam(r, key)
	}
	return v
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(r *http.Request, key string, def time.Time) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	d, err := ledger.ParseDate(s)
	if err != nil {
		return time.Time{}, badRequest("%s: %v", key, err)
	}
	return d, nil
}

// monthQuery parses a required YYYY-MM query parameter.
func monthQuery(r *http.Request, key string) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return time.Time{}, badRequest("%s is required", key)
	}
	m, err := ledger.ParseMonth(s)
	if err != nil {
		return time.Time{}, badRequest("%s: %v", key, err)
	}
	return m, nil
}

func today() time.Time {
	return ledger.Day(time.Now())
}
