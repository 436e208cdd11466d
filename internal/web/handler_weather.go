package web

import (
	"net/http"
	"strconv"
)

type weatherRequest struct {
	TempC *float64 `json:"tempC"`
	RH    *float64 `json:"rh"`
}

type weatherResponse struct {
	Available bool `json:"available"`
	Value     any  `json:"value"`
}

func (s *Server) handleSetWeather(w http.ResponseWriter, r *http.Request) {
	var req weatherRequest
	if err := decodeJSON(w, r, &req); err != nil || req.TempC == nil || req.RH == nil {
		s.badRequest(w, "tempC and rh are required")
		return
	}
	p, err := s.service.SetWeatherOverride(r.Context(), r.PathValue("id"), *req.TempC, *req.RH)
	if err != nil {
		s.writeError(w, err, "failed to set weather")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleClearWeather(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.ClearWeatherOverride(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "failed to clear weather")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// parseCoords reads the lat and lon query parameters.
func parseCoords(r *http.Request) (lat, lon float64, ok bool) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

func (s *Server) handleRefreshWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(r)
	if !ok {
		s.badRequest(w, "lat and lon are required")
		return
	}
	p, available, err := s.service.RefreshWeather(r.Context(), r.PathValue("id"), lat, lon)
	if err != nil {
		s.writeError(w, err, "failed to refresh weather")
		return
	}
	s.writeJSON(w, http.StatusOK, weatherResponse{Available: available, Value: p})
}

func (s *Server) handleRefreshSettingsWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(r)
	if !ok {
		s.badRequest(w, "lat and lon are required")
		return
	}
	settings, available, err := s.service.RefreshSettingsWeather(r.Context(), lat, lon)
	if err != nil {
		s.writeError(w, err, "failed to refresh weather")
		return
	}
	s.writeJSON(w, http.StatusOK, weatherResponse{Available: available, Value: settings})
}
