package httpapi

import (
	"net/http"

	"github.com/mikey/cybershield/internal/core"
)

type websiteRequest struct {
	URL string `json:"url"`
}

func (s *Server) analyzeWebsite(w http.ResponseWriter, r *http.Request) {
	var req websiteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	check, err := s.service.CheckWebsite(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (s *Server) listWebsites(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	checks, err := s.service.ListWebsiteChecks(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if checks == nil {
		checks = []*core.WebsiteCheck{}
	}
	writeJSON(w, http.StatusOK, checks)
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	activities, err := s.service.ListActivities(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if activities == nil {
		activities = []*core.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}
