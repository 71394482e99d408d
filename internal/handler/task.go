package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/auth"
	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/service"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
	"github.com/BuzzLyutic/task-workflow/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	engine  *workflow.Engine
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, engine *workflow.Engine, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		engine:  engine,
		logger:  logger,
	}
}

// Create handles POST /api/projects/{id}/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	t, err := req.toTask()
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	t.ProjectID = projectID

	task, err := h.service.Create(r.Context(), t, auth.ActorFromContext(r.Context()))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

// ListByProject handles GET /api/projects/{id}/tasks.
func (h *TaskHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	tasks, err := h.service.ListByProject(r.Context(), projectID)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

// Update edits a task. The body must carry the version the client last saw.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	t, err := req.toTask()
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	t.ID = id

	task, err := h.service.Update(r.Context(), t, auth.ActorFromContext(r.Context()))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Transition handles POST /api/tasks/{id}/transition.
func (h *TaskHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	// аутентификация проверяется раньше, чем содержимое запроса
	actor := auth.ActorFromContext(r.Context())
	if err := workflow.CheckAuthenticated(actor); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	to, ok := model.ParseStatus(req.Status)
	if !ok {
		respond.ErrorWithDetails(w, r, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status), map[string]interface{}{
			"statuses": model.Statuses(),
		})
		return
	}

	task, err := h.engine.TransitionByID(r.Context(), id, to, actor, req.Reason)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

type availableTransitions struct {
	TaskID    int64          `json:"task_id"`
	Status    model.Status   `json:"status"`
	Available []model.Status `json:"available"`
}

// Transitions handles GET /api/tasks/{id}/transitions. The list is the
// table's answer only; a listed move can still be rejected by the rules.
func (h *TaskHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, availableTransitions{
		TaskID:    task.ID,
		Status:    task.Status,
		Available: h.engine.AvailableTransitions(task),
	})
}

// History handles GET /api/tasks/{id}/history. The audit trail is served
// even after the task itself was deleted.
func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	history, err := h.engine.History(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, history)
}
