package server

import (
	"net/http"

	"github.com/simonvc/ledgerbook/internal/ledger"
)

type templateNameRequest struct {
	Name string `json:"name"`
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := s.book.BalanceSheetTemplates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateNameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.book.CreateBalanceSheetTemplate(r.Context(), req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTemplate(w, r, req.Name, http.StatusCreated)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	s.writeTemplate(w, r, pathParam(r, "name"), http.StatusOK)
}

func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, name string, status int) {
	t, err := s.book.BalanceSheetTemplate(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, t)
}

func (s *Server) updateTemplate(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	var req ledger.BalanceSheetTemplate
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.book.UpdateBalanceSheetTemplate(r.Context(), name, req.Assets, req.LiabilitiesEquity); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTemplate(w, r, name, http.StatusOK)
}

func (s *Server) renameTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateNameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.book.RenameBalanceSheetTemplate(r.Context(), pathParam(r, "name"), req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTemplate(w, r, req.Name, http.StatusOK)
}

func (s *Server) copyTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateNameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.book.CopyBalanceSheetTemplate(r.Context(), pathParam(r, "name"), req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTemplate(w, r, req.Name, http.StatusCreated)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteBalanceSheetTemplate(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
