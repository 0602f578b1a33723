package server

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgerbook/internal/ledger"
)

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.book.Currencies(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencies)
}

func (s *Server) createCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cur, err := s.book.CreateCurrency(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cur)
}

func (s *Server) getCurrency(w http.ResponseWriter, r *http.Request) {
	cur, err := s.book.Currency(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) deleteCurrency(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteCurrency(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.book.ExchangeRates(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

type createRateRequest struct {
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate string          `json:"effective_date"`
}

func (s *Server) createRate(w http.ResponseWriter, r *http.Request) {
	var req createRateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := ledger.ParseDate(req.EffectiveDate)
	if err != nil {
		writeError(w, r, badRequest("effective_date: %v", err))
		return
	}
	rate, err := s.book.CreateExchangeRate(r.Context(), pathParam(r, "name"), req.Rate, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rate)
}

func (s *Server) rateAt(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	date, err := dateQuery(r, "date", today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rate, err := s.book.ExchangeRateAt(r.Context(), name, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rate == nil {
		writeError(w, r, ledger.NotFound(ledger.KindRate, name+"@"+ledger.FormatDate(date)))
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Server) deleteRate(w http.ResponseWriter, r *http.Request) {
	date, err := ledger.ParseDate(pathParam(r, "date"))
	if err != nil {
		writeError(w, r, badRequest("date: %v", err))
		return
	}
	if err := s.book.DeleteExchangeRate(r.Context(), pathParam(r, "name"), date); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
