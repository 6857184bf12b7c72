package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
	"github.com/projectseashield/seashield/pkg/db"
)

type registerRequest struct {
	UserType model.UserType `json:"userType"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// handleRegister creates the caller's account with the requested type. Calling it
// again refreshes name and email but never changes the type.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		RespondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req registerRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondServiceError(w, r, err)
			return
		}
	}
	if req.UserType != "" && !req.UserType.IsValid() {
		s.respondServiceError(w, r, &services.ValidationError{Field: "userType", Message: "must be volunteer or organizer"})
		return
	}

	user, err := services.RegisterUser(r.Context(), s.store, s.logger, identity, req.UserType)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), sessionFromContext(r.Context()).UserID)
	if errors.Is(err, db.ErrNotFound) {
		err = services.ErrUserNotFound
	}
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, user)
}

func (s *Server) handleSetPushToken(w http.ResponseWriter, r *http.Request) {
	var req pushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if err := services.SetPushToken(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), req.Token); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.respondProfile(w, r, "")
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	s.respondProfile(w, r, chi.URLParam(r, "id"))
}

func (s *Server) respondProfile(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := services.ViewProfile(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, profile)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := services.ListNotifications(r.Context(), s.store, sessionFromContext(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notification, err := services.MarkNotificationRead(r.Context(), s.store, sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, notification)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteNotification(r.Context(), s.store, s.logger, sessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
