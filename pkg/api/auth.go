package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	sessionContextKey  contextKey = "session"
)

// authenticate verifies the bearer token and stores the caller's identity in the context
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			RespondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			RespondError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		identity, err := s.verifier.Verify(r.Context(), parts[1])
		if err != nil || identity.UID == "" {
			s.logger.Debug("Rejected token", zap.Error(err))
			RespondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveSession loads the caller's account, registering a volunteer account on
// first sight, and stores the session in the context
func (s *Server) resolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromContext(r.Context())
		if !ok {
			RespondError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		session, err := services.SessionFor(r.Context(), s.store, identity.UID)
		if errors.Is(err, services.ErrUserNotFound) {
			var user *model.User
			user, err = services.RegisterUser(r.Context(), s.store, s.logger, identity, model.UserTypeVolunteer)
			if err == nil {
				session = model.Session{UserID: user.ID, UserType: user.UserType}
			}
		}
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOrganizer rejects callers whose account is not an organizer
func requireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFromContext(r.Context()).IsOrganizer() {
			RespondError(w, http.StatusForbidden, "organizer role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFromContext(ctx context.Context) (services.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(services.Identity)
	return identity, ok
}

// sessionFromContext returns the caller's session, or the zero session when unauthenticated
func sessionFromContext(ctx context.Context) model.Session {
	session, _ := ctx.Value(sessionContextKey).(model.Session)
	return session
}
