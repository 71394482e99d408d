package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/service"
)

// taskRequest is the body of task create and edit calls. A status field, if
// sent, is not part of it and is ignored.
type taskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Assignee    *string `json:"assignee"`
	DueDate     string  `json:"due_date"`
	Version     int     `json:"version"`
}

func (req taskRequest) toTask() (model.Task, error) {
	t := model.Task{
		Title:       req.Title,
		Description: req.Description,
		Version:     req.Version,
	}
	if req.Assignee != nil {
		if a := strings.TrimSpace(*req.Assignee); a != "" {
			t.Assignee = &a
		}
	}
	if req.DueDate != "" {
		due, err := model.ParseDate(req.DueDate)
		if err != nil {
			return t, fmt.Errorf("%w: due_date must be YYYY-MM-DD", service.ErrValidation)
		}
		t.DueDate = due
	}
	return t, nil
}

type projectRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Tasks       []taskRequest `json:"tasks"`
}

func (req projectRequest) toProject() (model.Project, []model.Task, error) {
	p := model.Project{Name: req.Name, Description: req.Description}

	var err error
	if p.StartDate, err = parseRequiredDate("start_date", req.StartDate); err != nil {
		return p, nil, err
	}
	if p.EndDate, err = parseRequiredDate("end_date", req.EndDate); err != nil {
		return p, nil, err
	}

	tasks := make([]model.Task, 0, len(req.Tasks))
	for i, tr := range req.Tasks {
		t, err := tr.toTask()
		if err != nil {
			return p, nil, fmt.Errorf("task %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return p, tasks, nil
}

type transitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func parseRequiredDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", service.ErrValidation, field)
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", service.ErrValidation, field)
	}
	return d, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return fmt.Errorf("%w: empty request body", service.ErrValidation)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", service.ErrValidation, err)
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", service.ErrValidation, chi.URLParam(r, "id"))
	}
	return id, nil
}
