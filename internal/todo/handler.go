package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/auth"
)

// Handler exposes HTTP endpoints for todo CRUD. All routes sit behind the
// auth middleware, so a Caller is always present in the request context.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: NewService(db, nil), logger: logger}
}

// NewHandlerWithService wires an explicit service, used by tests.
func NewHandlerWithService(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Request is the create/update body.
type Request struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	IsComplete  bool   `json:"is_complete"`
}

func (req Request) fields() Fields {
	return Fields{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		IsComplete:  req.IsComplete,
	}
}

// List handles GET /todos.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Authentication Failed"})
		return
	}
	todos, err := h.svc.List(r.Context(), caller)
	if err != nil {
		h.logger.Errorw("list todos failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "list failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, todos)
}

// ListAll handles GET /auth/todos, the administrative listing across all
// owners. The router additionally guards this route with RequireAdmin.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Authentication Failed"})
		return
	}
	todos, err := h.svc.ListAll(r.Context(), caller)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Forbidden"})
			return
		}
		h.logger.Errorw("admin list todos failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "list failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, todos)
}

// Get handles GET /todos/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), caller, id)
	if err != nil {
		h.respondError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

// Create handles POST /todos.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Authentication Failed"})
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "invalid payload"})
		return
	}
	t, err := h.svc.Create(r.Context(), caller, req.fields())
	if err != nil {
		h.respondError(w, 0, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, t)
}

// Update handles PUT /todos/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "invalid payload"})
		return
	}
	if _, err := h.svc.Update(r.Context(), caller, id, req.fields()); err != nil {
		h.respondError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "Updated Todo"})
}

// Delete handles DELETE /todos/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), caller, id); err != nil {
		h.respondError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "Deleted Successfully"})
}

// callerAndID extracts the authenticated caller and the positive integer
// path parameter, writing the error response itself when either is missing.
func (h *Handler) callerAndID(w http.ResponseWriter, r *http.Request) (auth.Caller, int64, bool) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Authentication Failed"})
		return auth.Caller{}, 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "id must be a positive integer"})
		return auth.Caller{}, 0, false
	}
	return caller, id, true
}

func (h *Handler) respondError(w http.ResponseWriter, id int64, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Todo with %d not found", id)})
	default:
		h.logger.Errorw("todo operation failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
