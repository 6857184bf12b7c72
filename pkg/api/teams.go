package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/projectseashield/seashield/pkg/core/services"
)

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := services.ListTeams(r.Context(), s.store)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, teams)
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTeamInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	team, err := services.CreateTeam(r.Context(), s.store, s.cfg, s.logger, sessionFromContext(r.Context()), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, team)
}

func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := services.GetTeam(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, team)
}

func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	team, err := services.JoinTeam(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, team)
}

func (s *Server) handleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	result, err := services.LeaveTeam(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

func (s *Server) handleRequestToJoin(w http.ResponseWriter, r *http.Request) {
	req, err := services.RequestToJoin(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, req)
}

func (s *Server) handleListJoinRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := services.ListJoinRequests(r.Context(), s.store, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, requests)
}

func (s *Server) handleApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	team, err := services.ApproveJoinRequest(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, team)
}

func (s *Server) handleRejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	if err := services.RejectJoinRequest(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTeamLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := services.TeamLeaderboard(r.Context(), s.store, r.URL.Query().Get("eventId"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, board)
}

func (s *Server) handleVolunteerLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondServiceError(w, r, &services.ValidationError{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		limit = n
	}

	board, err := services.VolunteerLeaderboard(r.Context(), s.store, limit)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, board)
}
