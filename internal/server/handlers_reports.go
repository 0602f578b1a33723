package server

import (
	"net/http"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
)

// reportWindow reads from/until, defaulting to the current year up to today.
func reportWindow(r *http.Request) (from, until time.Time, err error) {
	if until, err = dateQuery(r, "until", today()); err != nil {
		return
	}
	from, err = dateQuery(r, "from", ledger.FirstDayOfYear(until))
	return
}

func (s *Server) incurredBalances(w http.ResponseWriter, r *http.Request) {
	from, until, err := reportWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bal, err := s.book.IncurredBalances(r.Context(), pathParam(r, "code"), from, until)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	from, until, err := reportWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tb, err := s.book.TrialBalance(r.Context(), from, until)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	until, err := dateQuery(r, "until", today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := r.URL.Query().Get("template")
	if name == "" {
		names, err := s.book.BalanceSheetTemplates(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if len(names) == 0 {
			writeError(w, r, ledger.NotFound(ledger.KindTemplate, ""))
			return
		}
		name = names[0]
	}
	bs, err := s.book.BalanceSheet(r.Context(), name, until)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}
