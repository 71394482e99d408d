package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/repo"
	"github.com/BuzzLyutic/task-workflow/internal/service"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
	"github.com/BuzzLyutic/task-workflow/pkg/respond"
)

func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var te *workflow.TransitionError

	switch {
	case errors.Is(err, workflow.ErrUnauthenticated):
		respond.Error(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, workflow.ErrPermissionDenied):
		respond.Error(w, r, http.StatusForbidden, err.Error())
	case errors.As(err, &te):
		respond.ErrorWithDetails(w, r, http.StatusConflict, err.Error(), map[string]interface{}{
			"from":    te.From,
			"to":      te.To,
			"allowed": te.Allowed,
		})
	case errors.Is(err, workflow.ErrConcurrentModification):
		respond.Error(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case workflow.IsRuleViolation(err):
		respond.Error(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		logger.Error("internal error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
