package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vbonduro/plantcare/internal/portability"
)

const maxSnapshotSize = 256 * 1024 * 1024 // 256 MB

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.porter.Export(r.Context())
	if err != nil {
		s.writeError(w, err, "failed to export plants")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plants-%s.json"`, snap.ExportedAt[:10]))
	if err := portability.Encode(w, snap); err != nil {
		s.logger.Error("write export failed", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	snap, err := portability.Decode(http.MaxBytesReader(w, r.Body, maxSnapshotSize))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "snapshot too large"})
		return
	}
	if err != nil {
		s.writeError(w, err, "failed to read snapshot")
		return
	}
	stats, err := s.porter.Import(r.Context(), snap)
	if err != nil {
		s.writeError(w, err, "failed to import plants")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ics, err := s.service.Calendar(r.Context())
	if err != nil {
		s.writeError(w, err, "failed to build calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="plants.ics"`)
	if _, err := w.Write([]byte(ics)); err != nil {
		s.logger.Error("write calendar failed", "error", err)
	}
}
