package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/projectseashield/seashield/pkg/core/services"
)

func (s *Server) handleUpdateWaste(w http.ResponseWriter, r *http.Request) {
	var input services.WasteInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	checkIn, err := services.UpdateWasteCollected(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, checkIn)
}

func (s *Server) handleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	var input services.PhotoInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	checkIn, err := services.AttachProofPhoto(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, checkIn)
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var input services.FeedbackInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	checkIn, err := services.SubmitFeedback(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, checkIn)
}

func (s *Server) handleAssignTeam(w http.ResponseWriter, r *http.Request) {
	var input services.AssignTeamInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	checkIn, err := services.AssignTeam(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, checkIn)
}
