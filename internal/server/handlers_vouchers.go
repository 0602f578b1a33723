package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/logger"
	"go.uber.org/zap"
)

type createVoucherRequest struct {
	Number   string `json:"number"`
	Date     string `json:"date"`
	Category string `json:"category"`
	Note     string `json:"note"`
}

func (s *Server) createVoucher(w http.ResponseWriter, r *http.Request) {
	var req createVoucherRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, badRequest("date: %v", err))
		return
	}
	category, err := ledger.ParseVoucherCategory(req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	number := req.Number
	if number == "" {
		if number, err = s.book.NextVoucherNumber(r.Context(), date); err != nil {
			writeError(w, r, err)
			return
		}
	}
	v, err := s.book.CreateVoucher(r.Context(), number, date, category, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) listVouchers(w http.ResponseWriter, r *http.Request) {
	var f book.VoucherFilter
	var err error
	if f.From, err = dateQuery(r, "from", f.From); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Until, err = dateQuery(r, "until", f.Until); err != nil {
		writeError(w, r, err)
		return
	}
	if m := r.URL.Query().Get("month"); m != "" {
		month, err := monthQuery(r, "month")
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Prefix = ledger.FormatMonth(month) + "/"
	}
	if cs := r.URL.Query().Get("category"); cs != "" {
		for _, c := range strings.Split(cs, ",") {
			category, err := ledger.ParseVoucherCategory(c)
			if err != nil {
				writeError(w, r, err)
				return
			}
			f.Categories = append(f.Categories, category)
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if f.Limit, err = strconv.Atoi(l); err != nil || f.Limit < 0 {
			writeError(w, r, badRequest("limit must be a non-negative integer"))
			return
		}
	}

	vouchers, err := s.book.Vouchers(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if vouchers == nil {
		vouchers = []ledger.Voucher{}
	}
	writeJSON(w, http.StatusOK, vouchers)
}

func (s *Server) getVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.book.Voucher(r.Context(), pathParam(r, "number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// patchVoucherRequest changes any of date, note and number, in that order.
type patchVoucherRequest struct {
	Date   *string `json:"date"`
	Note   *string `json:"note"`
	Number *string `json:"number"`
}

func (s *Server) patchVoucher(w http.ResponseWriter, r *http.Request) {
	number := pathParam(r, "number")
	var req patchVoucherRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h := book.VoucherHeader{Note: req.Note, Number: req.Number}
	if req.Date != nil {
		date, err := ledger.ParseDate(*req.Date)
		if err != nil {
			writeError(w, r, badRequest("date: %v", err))
			return
		}
		h.Date = &date
	}
	if err := s.book.UpdateVoucherHeader(r.Context(), number, h); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Number != nil {
		number = *req.Number
	}

	v, err := s.book.Voucher(r.Context(), number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteVoucher(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteVoucher(r.Context(), pathParam(r, "number")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) renumberVouchers(w http.ResponseWriter, r *http.Request) {
	month, err := monthQuery(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.book.RenumberVouchers(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"renumbered": n})
}

type entriesRequest struct {
	Debits  []ledger.Entry `json:"debits"`
	Credits []ledger.Entry `json:"credits"`
}

// updateEntries replaces a voucher's entries. An entry sent without a
// currency is posted in its account's currency at the rate in force on the
// voucher date.
func (s *Server) updateEntries(w http.ResponseWriter, r *http.Request) {
	number := pathParam(r, "number")
	var req entriesRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	for _, side := range [][]ledger.Entry{req.Debits, req.Credits} {
		for i, e := range side {
			if e.Currency != "" {
				continue
			}
			filled, err := s.book.EntryAtVoucherDate(r.Context(), number, e.AccountCode, e.Amount, e.Brief)
			if err != nil {
				writeError(w, r, err)
				return
			}
			side[i] = filled
		}
	}

	if err := s.book.UpdateDebitCreditEntries(r.Context(), number, req.Debits, req.Credits); err != nil {
		writeError(w, r, err)
		return
	}
	s.touchAccounts(r.Context(), append(req.Debits, req.Credits...))

	v, err := s.book.Voucher(r.Context(), number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// touchAccounts ranks the posted accounts for the MRU list. Failures are
// logged and do not fail the request.
func (s *Server) touchAccounts(ctx context.Context, entries []ledger.Entry) {
	for _, e := range entries {
		if err := s.book.TouchAccount(ctx, e.AccountCode); err != nil {
			logger.FromContext(ctx).Warn("touch account failed",
				zap.String("account", e.AccountCode), zap.Error(err))
		}
	}
}
