package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/service/parliament"
	"github.com/ashita-ai/gikai/internal/storage"
)

// Evaluator runs debates and records validations. *parliament.Engine is
// the production implementation; tests substitute stubs.
type Evaluator interface {
	RunDebate(ctx context.Context, ideaID, projectID uuid.UUID, projectContext string, cfg *model.DebateConfig) (parliament.DebateResult, error)
	RunQuickDebate(ctx context.Context, ideaIDs []uuid.UUID, projectID uuid.UUID, projectContext string) (parliament.QuickDebateResult, error)
	RecordValidation(ctx context.Context, kind model.AgentKind, projectID uuid.UUID, validated bool) (model.AgentReputation, error)
}

// SessionStore is the read/cleanup surface the handlers need beyond the
// evaluator. *storage.DB satisfies it.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (model.DebateSession, error)
	ListSessions(ctx context.Context, projectID uuid.UUID, limit int) ([]model.DebateSession, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	ListReputations(ctx context.Context, projectID uuid.UUID) (map[model.AgentKind]model.AgentReputation, error)
	Ping(ctx context.Context) error
}

// HandlersDeps holds all dependencies for creating Handlers.
type HandlersDeps struct {
	Evaluator           Evaluator
	Store               SessionStore
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	evaluator    Evaluator
	store        SessionStore
	logger       *slog.Logger
	version      string
	maxBodyBytes int64
}

// NewHandlers creates the handler set.
func NewHandlers(deps HandlersDeps) *Handlers {
	return &Handlers{
		evaluator:    deps.Evaluator,
		store:        deps.Store,
		logger:       deps.Logger,
		version:      deps.Version,
		maxBodyBytes: deps.MaxRequestBodyBytes,
	}
}

// HandleHealth reports service health, including storage reachability.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check: storage unreachable", "error", err)
		status = "degraded"
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// HandleStartDebate runs a full debate for one idea.
// POST /v1/debates
func (h *Handlers) HandleStartDebate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req model.DebateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	result, err := h.evaluator.RunDebate(r.Context(), req.IdeaID, req.ProjectID, req.ProjectContext, req.Config)
	if err != nil {
		h.writeEvaluationError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// HandleQuickDebate debates a small idea batch with shortened rounds.
// POST /v1/debates/quick
func (h *Handlers) HandleQuickDebate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req model.QuickDebateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	result, err := h.evaluator.RunQuickDebate(r.Context(), req.IdeaIDs, req.ProjectID, req.ProjectContext)
	if err != nil {
		h.writeEvaluationError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// HandleGetSession returns one persisted debate session.
// GET /v1/sessions/{session_id}
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid session id")
		return
	}

	session, err := h.store.GetSession(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Error("get session failed", "session_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to load session")
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

// HandleListSessions returns recent sessions for a project.
// GET /v1/sessions?project_id=...&limit=...
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "project_id query parameter is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
	}

	sessions, err := h.store.ListSessions(r.Context(), projectID, limit)
	if err != nil {
		h.logger.Error("list sessions failed", "project_id", projectID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to list sessions")
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

// HandleDeleteSession removes a persisted session.
// DELETE /v1/sessions/{session_id}
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid session id")
		return
	}

	err = h.store.DeleteSession(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Error("delete session failed", "session_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to delete session")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": id.String()})
}

// HandleRecordValidation records a human critique validation.
// POST /v1/validations
func (h *Handlers) HandleRecordValidation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req model.ValidationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	rep, err := h.evaluator.RecordValidation(r.Context(), req.AgentKind, req.ProjectID, req.Validated)
	if err != nil {
		h.logger.Error("record validation failed", "agent", req.AgentKind, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to record validation")
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// HandleReputation returns all agent reputations for a project.
// GET /v1/reputation/{project_id}
func (h *Handlers) HandleReputation(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("project_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid project id")
		return
	}

	reps, err := h.store.ListReputations(r.Context(), projectID)
	if err != nil {
		h.logger.Error("list reputations failed", "project_id", projectID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to list reputations")
		return
	}
	writeJSON(w, r, http.StatusOK, reps)
}

// writeEvaluationError maps evaluation failures onto HTTP statuses:
// unknown ideas are 404, a duplicate live debate is 409, everything else
// is 500. The message carries the structured failure reason.
func (h *Handlers) writeEvaluationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "idea not found")
	case strings.Contains(err.Error(), "already running"):
		writeError(w, r, http.StatusConflict, model.ErrCodeBadRequest, err.Error())
	default:
		h.logger.Error("debate evaluation failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, err.Error())
	}
}
