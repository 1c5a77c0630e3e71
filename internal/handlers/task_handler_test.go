package handlers_test

import (
	"net/http"
	"testing"

	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func createTaskViaAPI(t *testing.T, e *env, token, projectID, title string) models.Task {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/tasks", token, gin.H{
		"title":      title,
		"project_id": projectID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	decodeBody(t, w, &task)
	require.NotEmpty(t, task.ID)
	return task
}

func TestCreateTask_DefaultsApplied(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")
	_, project := e.seedBoard(t)

	task := createTaskViaAPI(t, e, token, project.ID, "Calibrate sensor")
	require.Equal(t, models.StatusTodo, task.Status)
	require.Equal(t, models.PriorityMedium, task.Priority)
}

func TestCreateTask_RejectsUnknownProject(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")

	w := e.do(t, http.MethodPost, "/api/tasks", token, gin.H{
		"title":      "orphan",
		"project_id": "ghost",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTask_RejectsInvalidStatus(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")
	_, project := e.seedBoard(t)

	w := e.do(t, http.MethodPost, "/api/tasks", token, gin.H{
		"title":      "x",
		"project_id": project.ID,
		"status":     "SHIPPED",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTaskStatus_MovesColumn(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")
	_, project := e.seedBoard(t)

	task := createTaskViaAPI(t, e, token, project.ID, "Calibrate sensor")
	e.refresh(t)

	w := e.do(t, http.MethodPatch, "/api/tasks/"+task.ID+"/status", token, gin.H{
		"status": "IN_PROGRESS",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Task
	decodeBody(t, w, &updated)
	require.Equal(t, models.StatusInProgress, updated.Status)

	// The store's copy moved with it.
	got, ok := e.store.Task(task.ID)
	require.True(t, ok)
	require.Equal(t, models.StatusInProgress, got.Status)
}

func TestUpdateTaskStatus_UnknownTask(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")

	w := e.do(t, http.MethodPatch, "/api/tasks/ghost/status", token, gin.H{
		"status": "DONE",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestArchiveAndRestoreTask(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")
	_, project := e.seedBoard(t)

	task := createTaskViaAPI(t, e, token, project.ID, "Calibrate sensor")
	e.refresh(t)

	w := e.do(t, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Gone from the default listing.
	w = e.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Tasks []models.Task `json:"tasks"`
		Count int           `json:"count"`
	}
	decodeBody(t, w, &listing)
	require.Zero(t, listing.Count)

	// Present in the archived view.
	w = e.do(t, http.MethodGet, "/api/tasks/archived", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &listing)
	require.Equal(t, 1, listing.Count)
	require.Equal(t, task.ID, listing.Tasks[0].ID)

	// Restore puts it back on the board as TODO.
	w = e.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/restore", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var restored models.Task
	decodeBody(t, w, &restored)
	require.Equal(t, models.StatusTodo, restored.Status)

	w = e.do(t, http.MethodGet, "/api/tasks/archived", token, nil)
	decodeBody(t, w, &listing)
	require.Zero(t, listing.Count)
}

func TestGetTasks_FilterByProjectAndStatus(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")
	team, project := e.seedBoard(t)

	other := e.do(t, http.MethodPost, "/api/projects", token, gin.H{
		"name":    "Telemetry",
		"team_id": team.ID,
	})
	require.Equal(t, http.StatusCreated, other.Code)
	var otherProject models.Project
	decodeBody(t, other, &otherProject)

	first := createTaskViaAPI(t, e, token, project.ID, "one")
	createTaskViaAPI(t, e, token, otherProject.ID, "two")
	e.refresh(t)

	w := e.do(t, http.MethodGet, "/api/tasks?projectId="+project.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Tasks []models.Task `json:"tasks"`
		Count int           `json:"count"`
	}
	decodeBody(t, w, &listing)
	require.Equal(t, 1, listing.Count)
	require.Equal(t, first.ID, listing.Tasks[0].ID)

	w = e.do(t, http.MethodGet, "/api/tasks?status=BLOCKED", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/tasks?priority=SOMEDAY", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/tasks?priority=MEDIUM", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &listing)
	require.Equal(t, 2, listing.Count)
}

func TestUpdateTask_PatchesFields(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")
	_, project := e.seedBoard(t)

	task := createTaskViaAPI(t, e, token, project.ID, "old title")

	w := e.do(t, http.MethodPut, "/api/tasks/"+task.ID, token, gin.H{
		"title":    "new title",
		"priority": "HIGH",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Task
	decodeBody(t, w, &updated)
	require.Equal(t, "new title", updated.Title)
	require.Equal(t, models.PriorityHigh, updated.Priority)
	require.Equal(t, models.StatusTodo, updated.Status)
}
