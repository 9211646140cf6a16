package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/fieldops/fieldsync/internal/chat"
	"github.com/fieldops/fieldsync/internal/config"
	"github.com/fieldops/fieldsync/internal/outbox"
	"github.com/fieldops/fieldsync/internal/session"
	"github.com/fieldops/fieldsync/internal/syncengine"
	"github.com/fieldops/fieldsync/internal/task"
	"github.com/fieldops/fieldsync/pkg/cerr"
	"github.com/fieldops/fieldsync/pkg/clog"
)

// Server exposes the task store, ordered views, outbox and session records
// over JSON HTTP for the UI layer (admin dashboard, worker inbox, voice bot).
type Server struct {
	server   *http.Server
	env      *config.Env
	store    *task.Store
	queue    *outbox.Queue
	chatSvc  *chat.Service
	sessions *session.Context
	engine   *syncengine.Engine
}

func NewServer(
	env *config.Env,
	store *task.Store,
	queue *outbox.Queue,
	chatSvc *chat.Service,
	sessions *session.Context,
	engine *syncengine.Engine,
) *Server {
	return &Server{
		env:      env,
		store:    store,
		queue:    queue,
		chatSvc:  chatSvc,
		sessions: sessions,
		engine:   engine,
	}
}

func (s *Server) handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})

		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleCreateTask)
		r.Post("/tasks/{id}/assign", s.handleAssignTask)
		r.Post("/tasks/{id}/status", s.handleUpdateStatus)
		r.Post("/tasks/{id}/complete", s.handleCompleteTask)
		r.Get("/tasks/{id}/messages", s.handleListMessages)
		r.Post("/tasks/{id}/messages", s.handleSendMessage)

		r.Get("/outbox", s.handleListOutbox)
		r.Post("/outbox/sync", s.handleTriggerSync)

		r.Get("/session/worker", s.handleGetWorkerSession)
		r.Put("/session/worker", s.handleLoginWorker)
		r.Delete("/session/worker", s.handleLogoutWorker)
		r.Get("/session/admin", s.handleGetAdminSession)
		r.Put("/session/admin", s.handleLoginAdmin)
		r.Delete("/session/admin", s.handleLogoutAdmin)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/", r)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux)
}

// ListenAndServe starts the HTTP server. The provided context becomes the
// base context of all requests, so cancelling it (shutdown signal) also
// cancels in-flight handlers.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
