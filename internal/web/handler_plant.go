package web

import (
	"net/http"
	"strconv"

	"github.com/vbonduro/plantcare/internal/domain"
)

func (s *Server) handleListPlants(w http.ResponseWriter, r *http.Request) {
	sums, err := s.service.Summaries(r.Context())
	if err != nil {
		s.writeError(w, err, "failed to list plants")
		return
	}
	s.writeJSON(w, http.StatusOK, sums)
}

const maxPlantNameLen = 200

func (s *Server) handleCreatePlant(w http.ResponseWriter, r *http.Request) {
	var p domain.Plant
	if err := decodeJSON(w, r, &p); err != nil {
		s.badRequest(w, "invalid plant")
		return
	}
	if len(p.Name) > maxPlantNameLen {
		s.badRequest(w, "plant name too long")
		return
	}
	p.ID = ""
	created, err := s.service.CreatePlant(r.Context(), &p)
	if err != nil {
		s.writeError(w, err, "failed to create plant")
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetPlant(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetPlant(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "failed to get plant")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePlant(w http.ResponseWriter, r *http.Request) {
	var p domain.Plant
	if err := decodeJSON(w, r, &p); err != nil {
		s.badRequest(w, "invalid plant")
		return
	}
	if len(p.Name) > maxPlantNameLen {
		s.badRequest(w, "plant name too long")
		return
	}
	updated, err := s.service.UpdatePlant(r.Context(), r.PathValue("id"), &p)
	if err != nil {
		s.writeError(w, err, "failed to update plant")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePlant(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeletePlant(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err, "failed to delete plant")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWater(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.MarkWatered(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "failed to mark watered")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// parseIndex extracts the {index} path variable.
func parseIndex(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("index"))
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var t domain.Task
	if err := decodeJSON(w, r, &t); err != nil {
		s.badRequest(w, "invalid task")
		return
	}
	p, err := s.service.AddTask(r.Context(), r.PathValue("id"), t)
	if err != nil {
		s.writeError(w, err, "failed to add task")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	idx, err := parseIndex(r)
	if err != nil {
		s.badRequest(w, "invalid task index")
		return
	}
	var t domain.Task
	if err := decodeJSON(w, r, &t); err != nil {
		s.badRequest(w, "invalid task")
		return
	}
	p, err := s.service.UpdateTask(r.Context(), r.PathValue("id"), idx, t)
	if err != nil {
		s.writeError(w, err, "failed to update task")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	idx, err := parseIndex(r)
	if err != nil {
		s.badRequest(w, "invalid task index")
		return
	}
	p, err := s.service.RemoveTask(r.Context(), r.PathValue("id"), idx)
	if err != nil {
		s.writeError(w, err, "failed to remove task")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	idx, err := parseIndex(r)
	if err != nil {
		s.badRequest(w, "invalid task index")
		return
	}
	p, err := s.service.CompleteTask(r.Context(), r.PathValue("id"), idx)
	if err != nil {
		s.writeError(w, err, "failed to complete task")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

type coverRequest struct {
	ObservationID string `json:"observationId"`
}

func (s *Server) handleSetCover(w http.ResponseWriter, r *http.Request) {
	var req coverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, "invalid cover")
		return
	}
	p, err := s.service.SetCover(r.Context(), r.PathValue("id"), req.ObservationID)
	if err != nil {
		s.writeError(w, err, "failed to set cover")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Agenda(r.Context())
	if err != nil {
		s.writeError(w, err, "failed to build agenda")
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	plants, err := s.service.SeedDemo(r.Context())
	if err != nil {
		s.writeError(w, err, "failed to seed demo plants")
		return
	}
	s.writeJSON(w, http.StatusCreated, plants)
}
