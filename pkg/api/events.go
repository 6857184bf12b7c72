package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
)

type checkInResponse struct {
	CheckIn        *model.CheckIn `json:"checkIn"`
	Event          *model.Event   `json:"event"`
	WasteCollected float64        `json:"wasteCollected"`
	EcoScoreDelta  int            `json:"ecoScoreDelta"`
}

type deleteEventResponse struct {
	DeletedCheckIns      int      `json:"deletedCheckIns"`
	DeletedNotifications int      `json:"deletedNotifications"`
	AffectedUsers        []string `json:"affectedUsers"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.EventFilter{
		Status:      model.EventStatus(q.Get("status")),
		OrganizerID: q.Get("organizer"),
		FromDate:    q.Get("from"),
	}
	if filter.Status != "" && filter.Status != model.EventStatusActive && filter.Status != model.EventStatusCancelled {
		s.respondServiceError(w, r, &services.ValidationError{Field: "status", Message: "must be active or cancelled"})
		return
	}

	events, err := services.ListEvents(r.Context(), s.store, filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := services.GetEvent(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, event)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var input services.CreateEventInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	event, err := services.CreateEvent(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, event)
}

func (s *Server) handleCancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := services.CancelEvent(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	result, err := services.DeleteEvent(r.Context(), s.store, s.cfg, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, deleteEventResponse{
		DeletedCheckIns:      result.DeletedCheckIns,
		DeletedNotifications: result.DeletedNotifications,
		AffectedUsers:        result.AffectedUsers,
	})
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	result, err := services.CheckIn(r.Context(), s.store, s.cfg, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.metrics.checkIns.Inc()

	JSON(w, http.StatusCreated, checkInResponse{
		CheckIn:        result.CheckIn,
		Event:          result.Event,
		WasteCollected: result.WasteCollected,
		EcoScoreDelta:  result.EcoScoreDelta,
	})
}

func (s *Server) handleEventReport(w http.ResponseWriter, r *http.Request) {
	report, err := services.BuildEventReport(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, report)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		s.respondServiceError(w, r, services.ErrReportSheetNotConfigured)
		return
	}

	report, err := services.ExportEventReport(r.Context(), s.store, s.publisher, s.cfg, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, report)
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var input services.BroadcastInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	result, err := services.BroadcastMessage(r.Context(), s.store, s.notifiers, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	for _, failure := range result.DeliveryFailures {
		s.metrics.deliveryFailures.WithLabelValues(failure.Channel).Inc()
	}

	JSON(w, http.StatusOK, result)
}

type autoAssignRequest struct {
	TeamSize int `json:"teamSize"`
}

func (s *Server) handleAutoAssignTeams(w http.ResponseWriter, r *http.Request) {
	var req autoAssignRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondServiceError(w, r, err)
			return
		}
	}

	assignments, err := services.AutoAssignTeams(r.Context(), s.store, s.cfg, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"), req.TeamSize)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"assignments": assignments})
}
