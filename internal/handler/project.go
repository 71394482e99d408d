package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/auth"
	"github.com/BuzzLyutic/task-workflow/internal/service"
	"github.com/BuzzLyutic/task-workflow/pkg/respond"
)

type ProjectHandler struct {
	service *service.ProjectService
	logger  *zap.Logger
}

func NewProjectHandler(srv *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: srv,
		logger:  logger,
	}
}

// Create handles POST /api/projects: the project and its initial tasks are
// stored together or not at all.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	p, tasks, err := req.toProject()
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	created, err := h.service.CreateWithInitialTasks(r.Context(), p, tasks, auth.ActorFromContext(r.Context()), idempKey)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/projects/%d", created.ID))
	respond.JSON(w, r, http.StatusCreated, created)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, auth.ActorFromContext(r.Context())); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *ProjectHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	summary, err := h.service.Summarize(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, summary)
}
