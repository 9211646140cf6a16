package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldops/fieldsync/internal/chat"
	"github.com/fieldops/fieldsync/internal/session"
	"github.com/fieldops/fieldsync/internal/task"
	"github.com/fieldops/fieldsync/pkg/cerr"
)

func decodeJSON(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.store.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	switch r.URL.Query().Get("view") {
	case "worker":
		tasks = task.WorkerView(tasks)
	case "admin":
		tasks = task.AdminView(tasks)
	case "":
		// insertion order
	default:
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "unknown view", nil)
		return
	}
	cerr.SetJSONResponse(ctx, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input task.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	created, err := s.store.Create(ctx, input)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, created)
}

func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		WorkerID string `json:"workerId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	assigned, err := s.store.Assign(ctx, chi.URLParam(r, "id"), req.WorkerID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if assigned == nil {
		// The store treats unknown ids as a silent no-op; the HTTP surface
		// makes that explicit for callers.
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, assigned)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Status task.Status `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	updated, err := s.store.UpdateStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if updated == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, updated)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.Complete(ctx, chi.URLParam(r, "id")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"status": string(task.StatusCompleted)})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msgs, err := s.chatSvc.Messages(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, msgs)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Role chat.Role `json:"role"`
		Text string    `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.Text == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "text cannot be empty", nil)
		return
	}
	msg, err := s.chatSvc.Send(ctx, chi.URLParam(r, "id"), req.Role, req.Text)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, msg)
}

func (s *Server) handleListOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		actions any
		err     error
	)
	if r.URL.Query().Get("unsynced") == "true" {
		actions, err = s.queue.DrainUnsynced(ctx)
	} else {
		actions, err = s.queue.All(ctx)
	}
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, actions)
}

func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	delivered, err := s.engine.Sweep(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]int{"delivered": delivered})
}

func (s *Server) handleGetWorkerSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auth, err := s.sessions.Worker(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if auth == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "no worker session", nil)
		return
	}
	cerr.SetJSONResponse(ctx, auth)
}

func (s *Server) handleLoginWorker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var auth session.WorkerAuth
	if err := decodeJSON(r, &auth); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if auth.WorkerID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "workerId cannot be empty", nil)
		return
	}
	if err := s.sessions.LoginWorker(ctx, auth, time.Now().UnixMilli()); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, auth)
}

func (s *Server) handleLogoutWorker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.sessions.LogoutWorker(ctx); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]bool{"ok": true})
}

func (s *Server) handleGetAdminSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auth, err := s.sessions.Admin(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if auth == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "no admin session", nil)
		return
	}
	cerr.SetJSONResponse(ctx, auth)
}

func (s *Server) handleLoginAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var auth session.AdminAuth
	if err := decodeJSON(r, &auth); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if auth.AdminID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "adminId cannot be empty", nil)
		return
	}
	if err := s.sessions.LoginAdmin(ctx, auth); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, auth)
}

func (s *Server) handleLogoutAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.sessions.LogoutAdmin(ctx); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]bool{"ok": true})
}
