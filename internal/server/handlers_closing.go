package server

import (
	"context"
	"net/http"
	"time"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
)

const (
	closingMonthEnd            = "month-end"
	closingYearEnd             = "year-end"
	closingExchangeGainsLosses = "exchange-gains-losses"
)

type closing struct {
	period  time.Time
	preview func(context.Context, time.Time) (*book.Preview, error)
	apply   func(context.Context, time.Time) (*ledger.Voucher, error)
}

// closingFor resolves the carry-forward kind and its period from the request.
func (s *Server) closingFor(r *http.Request) (closing, error) {
	var c closing
	switch kind := pathParam(r, "kind"); kind {
	case closingMonthEnd:
		c.preview, c.apply = s.book.PreviewMonthEnd, s.book.ApplyMonthEnd
	case closingExchangeGainsLosses:
		c.preview, c.apply = s.book.PreviewExchangeGainsLosses, s.book.ApplyExchangeGainsLosses
	case closingYearEnd:
		year := r.URL.Query().Get("year")
		if year == "" {
			return c, badRequest("year is required")
		}
		t, err := time.Parse("2006", year)
		if err != nil {
			return c, badRequest("year: %v", err)
		}
		c.period, c.preview, c.apply = t, s.book.PreviewYearEnd, s.book.ApplyYearEnd
		return c, nil
	default:
		return c, badRequest("unknown carry-forward %q", kind)
	}
	month, err := monthQuery(r, "month")
	if err != nil {
		return c, err
	}
	c.period = month
	return c, nil
}

func (s *Server) previewClosing(w http.ResponseWriter, r *http.Request) {
	c, err := s.closingFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pv, err := c.preview(r.Context(), c.period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

// applyClosing regenerates the proposal and writes it. It answers 204 when
// the proposal was empty and no voucher remains.
func (s *Server) applyClosing(w http.ResponseWriter, r *http.Request) {
	c, err := s.closingFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := c.apply(r.Context(), c.period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
