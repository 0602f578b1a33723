package server

import (
	"net/http"
	"strconv"

	"github.com/simonvc/ledgerbook/internal/ledger"
)

type createAccountRequest struct {
	ParentCode string `json:"parent_code"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := s.book.CreateAccount(r.Context(), req.ParentCode, req.Code, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.book.Accounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.book.Account(r.Context(), pathParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) getAccountByQualname(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, r, badRequest("q is required"))
		return
	}
	acct, err := s.book.AccountByQualname(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteAccount(r.Context(), pathParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listChildren(w http.ResponseWriter, r *http.Request) {
	children, err := s.book.Children(r.Context(), pathParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if children == nil {
		children = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, children)
}

type setCurrencyRequest struct {
	Currency                string `json:"currency"`
	NeedExchangeGainsLosses bool   `json:"need_exchange_gains_losses"`
}

func (s *Server) setAccountCurrency(w http.ResponseWriter, r *http.Request) {
	code := pathParam(r, "code")
	var req setCurrencyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.book.SetAccountCurrency(r.Context(), code, req.Currency, req.NeedExchangeGainsLosses); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAccount(w, r, code)
}

func (s *Server) setExchangeGainsLosses(w http.ResponseWriter, r *http.Request) {
	code := pathParam(r, "code")
	var req struct {
		Need bool `json:"need"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.book.SetNeedExchangeGainsLosses(r.Context(), code, req.Need); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAccount(w, r, code)
}

func (s *Server) writeAccount(w http.ResponseWriter, r *http.Request, code string) {
	acct, err := s.book.Account(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) touchAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.book.TouchAccount(r.Context(), pathParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) topAccounts(w http.ResponseWriter, r *http.Request) {
	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		if n, err = strconv.Atoi(v); err != nil || n <= 0 {
			writeError(w, r, badRequest("n must be a positive integer"))
			return
		}
	}
	accounts, err := s.book.TopAccounts(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}
