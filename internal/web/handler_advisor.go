package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/plantcare/internal/advisor"
	"github.com/vbonduro/plantcare/internal/domain"
)

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	s.writeJSON(w, http.StatusOK, s.service.SuggestTaxonomy(r.Context(), query))
}

type planResponse struct {
	Available bool              `json:"available"`
	Plan      *advisor.CarePlan `json:"plan,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req advisor.CarePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, "invalid plan request")
		return
	}
	plan, ok := s.service.CarePlan(r.Context(), req)
	s.writeJSON(w, http.StatusOK, planResponse{Available: ok, Plan: plan})
}

type applyPlanResponse struct {
	Available bool          `json:"available"`
	Plant     *domain.Plant `json:"plant"`
}

func (s *Server) handleApplyPlan(w http.ResponseWriter, r *http.Request) {
	p, ok, err := s.service.ApplyCarePlan(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "failed to apply care plan")
		return
	}
	s.writeJSON(w, http.StatusOK, applyPlanResponse{Available: ok, Plant: p})
}
