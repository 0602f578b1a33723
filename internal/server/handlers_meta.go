package server

import "net/http"

func (s *Server) getMeta(w http.ResponseWriter, r *http.Request) {
	m, err := s.book.Meta(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) forwardMonth(w http.ResponseWriter, r *http.Request) {
	m, err := s.book.ForwardToNextMonth(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
