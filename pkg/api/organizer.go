package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
)

type scheduleRequest struct {
	From  string `json:"from"`
	Until string `json:"until"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := services.BuildOrganizerAnalytics(r.Context(), s.store, sessionFromContext(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, analytics)
}

func (s *Server) handleScheduleEvents(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	from, err := time.Parse(model.DateLayout, req.From)
	if err != nil {
		s.respondServiceError(w, r, &services.ValidationError{Field: "from", Message: "must be a date formatted as " + model.DateLayout})
		return
	}
	until, err := time.Parse(model.DateLayout, req.Until)
	if err != nil {
		s.respondServiceError(w, r, &services.ValidationError{Field: "until", Message: "must be a date formatted as " + model.DateLayout})
		return
	}

	result, err := services.ScheduleRecurringEvents(r.Context(), s.store, s.cfg, s.logger, sessionFromContext(r.Context()), from, until)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string][]model.Event{
		"created": result.Created,
		"skipped": result.Skipped,
	})
}

// handleReconcile reports counter drift; ?apply=true also repairs it
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	apply := false
	if v := r.URL.Query().Get("apply"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.respondServiceError(w, r, &services.ValidationError{Field: "apply", Message: "must be a boolean"})
			return
		}
		apply = parsed
	}

	result, err := services.ReconcileCounters(r.Context(), s.store, s.cfg, s.logger, sessionFromContext(r.Context()), apply)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result)
}
