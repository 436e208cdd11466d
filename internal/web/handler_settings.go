package web

import (
	"net/http"

	"github.com/vbonduro/plantcare/internal/domain"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.LoadSettings(r.Context())
	if err != nil {
		s.writeError(w, err, "failed to load settings")
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		s.badRequest(w, "invalid settings")
		return
	}
	saved, err := s.service.SaveSettings(r.Context(), settings)
	if err != nil {
		s.writeError(w, err, "failed to save settings")
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}
