package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/auth"
	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
	"github.com/BuzzLyutic/task-workflow/internal/service"
	"github.com/BuzzLyutic/task-workflow/internal/testutil"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
)

type testServer struct {
	t      *testing.T
	store  repo.Store
	router http.Handler
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	store := testutil.NewSQLiteStore(t)
	logger := zap.NewNop()
	policy := auth.NewRolePolicy([]string{"admin"})
	engine := workflow.NewEngine(store, policy, nil, logger)

	router := NewRouter(RouterConfig{
		Tasks:         NewTaskHandler(service.NewTaskService(store, policy), engine, logger),
		Projects:      NewProjectHandler(service.NewProjectService(store), logger),
		Authenticator: auth.HeaderAuthenticator{},
		Logger:        logger,
	})
	return &testServer{t: t, store: store, router: router}
}

type as struct {
	user  string
	roles string
}

var (
	anonymous = as{}
	alice     = as{user: "alice"}
	bob       = as{user: "bob"}
	root      = as{user: "root", roles: "admin"}
)

func (s *testServer) do(method, path string, who as, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if who.user != "" {
		req.Header.Set(auth.HeaderUserID, who.user)
	}
	if who.roles != "" {
		req.Header.Set(auth.HeaderRoles, who.roles)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

func day(offset int) string {
	return model.Day(time.Now()).AddDate(0, 0, offset).Format(model.DateLayout)
}

func (s *testServer) createProject(tasks ...map[string]any) service.ProjectWithTasks {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/projects", alice, map[string]any{
		"name":       "Launch",
		"start_date": day(-10),
		"end_date":   day(60),
		"tasks":      tasks,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.ProjectWithTasks](s.t, w)
}

func TestHealth(t *testing.T) {
	s := setupServer(t)

	w := s.do(http.MethodGet, "/health", anonymous, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestTaskHandler_Create(t *testing.T) {
	s := setupServer(t)
	project := s.createProject()
	path := fmt.Sprintf("/api/projects/%d/tasks", project.ID)

	tests := []struct {
		name          string
		path          string
		body          any
		wantCode      int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:     "successful creation ignores status",
			path:     path,
			body:     map[string]any{"title": "Test Task", "due_date": day(5), "status": "DONE"},
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				task := decode[model.Task](t, w)
				assert.NotZero(t, task.ID)
				assert.Equal(t, model.StatusPending, task.Status)
				assert.Contains(t, w.Header().Get("Location"), "/api/tasks/")
			},
		},
		{
			name:     "empty body",
			path:     path,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error - empty title",
			path:     path,
			body:     map[string]any{"title": "", "due_date": day(5)},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error - bad date",
			path:     path,
			body:     map[string]any{"title": "x", "due_date": "tomorrow"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error - due date outside the project",
			path:     path,
			body:     map[string]any{"title": "x", "due_date": day(365)},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown project",
			path:     "/api/projects/9999/tasks",
			body:     map[string]any{"title": "x", "due_date": day(5)},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "invalid project id",
			path:     "/api/projects/abc/tasks",
			body:     map[string]any{"title": "x", "due_date": day(5)},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, alice, tt.body)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestTaskHandler_GetUpdateDelete(t *testing.T) {
	s := setupServer(t)
	project := s.createProject(map[string]any{"title": "Draft", "due_date": day(3)})
	task := project.Tasks[0]
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := s.do(http.MethodGet, path, anonymous, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Draft", decode[model.Task](t, w).Title)

	w = s.do(http.MethodPatch, path, alice, map[string]any{
		"title": "Final", "assignee": "alice", "due_date": day(4), "version": task.Version, "status": "DONE",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Task](t, w)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, model.StatusPending, updated.Status, "status is only changed by transitions")
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, "alice", *updated.Assignee)

	w = s.do(http.MethodPatch, path, alice, map[string]any{"title": "Stale", "due_date": day(4), "version": task.Version})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_TransitionErrors(t *testing.T) {
	s := setupServer(t)
	project := s.createProject(
		map[string]any{"title": "Unassigned", "due_date": day(3)},
		map[string]any{"title": "Alice's", "assignee": "alice", "due_date": day(3), "description": "all the numbers are in"},
	)
	unassigned, assigned := project.Tasks[0], project.Tasks[1]
	transition := func(id int64) string { return fmt.Sprintf("/api/tasks/%d/transition", id) }

	// Alice's task goes to IN_PROGRESS for the authorization cases.
	w := s.do(http.MethodPost, transition(assigned.ID), alice, map[string]any{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tests := []struct {
		name     string
		taskID   int64
		who      as
		body     any
		wantCode int
		check    func(*testing.T, map[string]any)
	}{
		{
			name:     "anonymous",
			taskID:   unassigned.ID,
			who:      anonymous,
			body:     map[string]any{"status": "CANCELLED"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "anonymous with unknown status",
			taskID:   unassigned.ID,
			who:      anonymous,
			body:     map[string]any{"status": "ARCHIVED"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "unknown status",
			taskID:   unassigned.ID,
			who:      alice,
			body:     map[string]any{"status": "ARCHIVED"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not in the table",
			taskID:   unassigned.ID,
			who:      alice,
			body:     map[string]any{"status": "DONE"},
			wantCode: http.StatusConflict,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"IN_PROGRESS", "CANCELLED"}, body["allowed"])
				assert.Equal(t, "PENDING", body["from"])
			},
		},
		{
			name:     "missing assignee",
			taskID:   unassigned.ID,
			who:      alice,
			body:     map[string]any{"status": "IN_PROGRESS"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "not the assignee",
			taskID:   assigned.ID,
			who:      bob,
			body:     map[string]any{"status": "DONE"},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "cancel in progress without admin",
			taskID:   assigned.ID,
			who:      alice,
			body:     map[string]any{"status": "CANCELLED"},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "unknown task",
			taskID:   9999,
			who:      alice,
			body:     map[string]any{"status": "CANCELLED"},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, transition(tt.taskID), tt.who, tt.body)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			body := decode[map[string]any](t, w)
			assert.NotEmpty(t, body["error"])
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}

	// ни одна отклоненная попытка не попала в историю
	w = s.do(http.MethodGet, fmt.Sprintf("/api/tasks/%d/history", unassigned.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Transition](t, w))
}

func TestTaskHandler_TransitionLifecycle(t *testing.T) {
	s := setupServer(t)
	project := s.createProject(map[string]any{
		"title": "Report", "assignee": "alice", "due_date": day(2), "description": "numbers compiled and sent",
	})
	task := project.Tasks[0]
	base := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := s.do(http.MethodGet, base+"/transitions", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []model.Status{model.StatusInProgress, model.StatusCancelled}, decode[availableTransitions](t, w).Available)

	w = s.do(http.MethodPost, base+"/transition", alice, map[string]any{"status": "IN_PROGRESS", "reason": "starting"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.StatusInProgress, decode[model.Task](t, w).Status)

	w = s.do(http.MethodPost, base+"/transition", root, map[string]any{"status": "DONE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.StatusDone, decode[model.Task](t, w).Status)

	w = s.do(http.MethodGet, base+"/transitions", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[availableTransitions](t, w).Available)

	w = s.do(http.MethodGet, base+"/history", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]model.Transition](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, "alice", history[0].ActorID)
	require.NotNil(t, history[0].Reason)
	assert.Equal(t, "starting", *history[0].Reason)
	assert.Equal(t, "root", history[1].ActorID)

	// история переживает удаление задачи
	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, base, root, nil).Code)
	w = s.do(http.MethodGet, base+"/history", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Transition](t, w), 2)
}

func TestTaskHandler_MutationsRequireActor(t *testing.T) {
	s := setupServer(t)
	project := s.createProject(map[string]any{
		"title": "Audit", "assignee": "alice", "due_date": day(3), "description": "ledger reconciled twice",
	})
	task := project.Tasks[0]
	base := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := s.do(http.MethodPost, base+"/transition", alice, map[string]any{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	task = decode[model.Task](t, w)

	w = s.do(http.MethodPost, base+"/transition", bob, map[string]any{"status": "DONE"})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	takeOver := map[string]any{"title": "Audit", "assignee": "bob", "due_date": day(3), "version": task.Version}

	w = s.do(http.MethodPatch, base, anonymous, takeOver)
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	w = s.do(http.MethodPatch, base, bob, takeOver)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/transition", bob, map[string]any{"status": "DONE"})
	assert.Equal(t, http.StatusForbidden, w.Code, "bob is still not the assignee")

	w = s.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), anonymous,
		map[string]any{"title": "Sneaky", "due_date": day(3)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodDelete, base, anonymous, nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), anonymous, nil).Code)

	w = s.do(http.MethodGet, base, anonymous, nil)
	require.Equal(t, http.StatusOK, w.Code, "task survives the rejected deletes")
	stored := decode[model.Task](t, w)
	assert.Equal(t, model.StatusInProgress, stored.Status)
	require.NotNil(t, stored.Assignee)
	assert.Equal(t, "alice", *stored.Assignee)

	// администратор может переназначить задачу
	w = s.do(http.MethodPatch, base, root, takeOver)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "bob", *decode[model.Task](t, w).Assignee)
}

func TestHandleErrors_Internal(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	handleErrors(w, r, zap.NewNop(), fmt.Errorf("database is on fire"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decode[map[string]string](t, w)["error"])
}

func TestHandleErrors_ConcurrentModification(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	handleErrors(w, r, zap.NewNop(), fmt.Errorf("%w: %w", workflow.ErrConcurrentModification, repo.ErrorConflict))

	assert.Equal(t, http.StatusConflict, w.Code)
}
