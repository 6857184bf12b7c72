// Package api serves the cleanup coordination operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/services"
	"github.com/projectseashield/seashield/pkg/db"
)

// TokenVerifier checks a bearer token and returns the identity it asserts
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (services.Identity, error)
}

// Pinger is implemented by stores that can report their health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server hands to the services
type Deps struct {
	Store     db.Database
	Config    *config.Config
	Logger    *zap.Logger
	Verifier  TokenVerifier
	Notifiers []services.Notifier
	// Publisher is optional; report export answers 503 without it
	Publisher services.ReportPublisher
	Metrics   *Metrics
}

// Server routes HTTP requests to the services
type Server struct {
	store     db.Database
	cfg       *config.Config
	logger    *zap.Logger
	verifier  TokenVerifier
	notifiers []services.Notifier
	publisher services.ReportPublisher
	metrics   *Metrics
}

func NewServer(deps Deps) *Server {
	s := &Server{
		store:     deps.Store,
		cfg:       deps.Config,
		logger:    deps.Logger,
		verifier:  deps.Verifier,
		notifiers: deps.Notifiers,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Router builds the chi router with all middleware and routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		// Registration picks the account type, so it runs before the session exists
		r.Post("/me", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.resolveSession)

			r.Get("/me", s.handleMe)
			r.Put("/me/push-token", s.handleSetPushToken)
			r.Get("/me/profile", s.handleProfile)
			r.Get("/me/notifications", s.handleListNotifications)
			r.Post("/me/notifications/{id}/read", s.handleMarkNotificationRead)
			r.Delete("/me/notifications/{id}", s.handleDeleteNotification)

			r.Get("/users/{id}/profile", s.handleUserProfile)

			r.Get("/events", s.handleListEvents)
			r.Get("/events/{id}", s.handleGetEvent)
			r.Post("/events/{id}/checkin", s.handleCheckIn)

			r.Patch("/checkins/{id}/waste", s.handleUpdateWaste)
			r.Patch("/checkins/{id}/photo", s.handleAttachPhoto)
			r.Patch("/checkins/{id}/feedback", s.handleSubmitFeedback)

			r.Get("/teams", s.handleListTeams)
			r.Post("/teams", s.handleCreateTeam)
			r.Get("/teams/{id}", s.handleGetTeam)
			r.Post("/teams/{id}/join", s.handleJoinTeam)
			r.Post("/teams/{id}/leave", s.handleLeaveTeam)
			r.Get("/teams/{id}/requests", s.handleListJoinRequests)
			r.Post("/teams/{id}/requests", s.handleRequestToJoin)
			r.Post("/join-requests/{id}/approve", s.handleApproveJoinRequest)
			r.Post("/join-requests/{id}/reject", s.handleRejectJoinRequest)

			r.Get("/leaderboard/teams", s.handleTeamLeaderboard)
			r.Get("/leaderboard/volunteers", s.handleVolunteerLeaderboard)

			r.Group(func(r chi.Router) {
				r.Use(requireOrganizer)

				r.Post("/events", s.handleCreateEvent)
				r.Delete("/events/{id}", s.handleDeleteEvent)
				r.Post("/events/{id}/cancel", s.handleCancelEvent)
				r.Get("/events/{id}/report", s.handleEventReport)
				r.Post("/events/{id}/report/export", s.handleExportReport)
				r.Post("/events/{id}/broadcast", s.handleBroadcast)
				r.Post("/events/{id}/teams/auto-assign", s.handleAutoAssignTeams)
				r.Put("/checkins/{id}/team", s.handleAssignTeam)

				r.Get("/organizer/analytics", s.handleAnalytics)
				r.Post("/organizer/schedule", s.handleScheduleEvents)
				r.Post("/organizer/reconcile", s.handleReconcile)
			})
		})
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if s.cfg != nil && len(s.cfg.HTTP.AllowedOrigins) > 0 {
		return s.cfg.HTTP.AllowedOrigins
	}
	return []string{"http://localhost:*"}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			RespondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// requestLogger logs one line per request, the way chi's Logger does, through zap
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// ListenAndServe serves the router on the configured port until ctx is cancelled,
// then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
