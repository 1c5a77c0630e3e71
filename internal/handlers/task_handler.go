package handlers

import (
	"errors"
	"net/http"
	"time"

	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	ProjectID   string              `json:"project_id" binding:"required"`
	AssigneeID  string              `json:"assignee_id"`
	DueDate     *time.Time          `json:"due_date"`
	Labels      []string            `json:"labels"`
}

// UpdateTaskStatusRequest represents a minimal request to change status
type UpdateTaskStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
}

// GetTasks handles GET /api/tasks
// Optional query params: projectId, status, priority, assigneeId. Archived
// tasks are excluded unless status=ARCHIVED is asked for explicitly.
func (h *Handler) GetTasks(c *gin.Context) {
	filter := backend.TaskFilter{
		ProjectID:  c.Query("projectId"),
		Status:     models.TaskStatus(c.Query("status")),
		Priority:   models.TaskPriority(c.Query("priority")),
		AssigneeID: c.Query("assigneeId"),
	}
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}
	if filter.Priority != "" && !models.ValidPriority(filter.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority filter"})
		return
	}

	tasks, err := h.backend.ListTasks(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetArchivedTasks handles GET /api/tasks/archived
// Serves the archived view from the entity store; archived rows stay
// queryable and restorable.
func (h *Handler) GetArchivedTasks(c *gin.Context) {
	tasks := h.store.ArchivedTasks()
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTaskByID handles GET /api/tasks/:id
func (h *Handler) GetTaskByID(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	task, err := h.backend.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTask handles POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	task, err := h.backend.CreateTask(c.Request.Context(), models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		Labels:      req.Labels,
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project_id: project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		}
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	var patch backend.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	task, err := h.backend.UpdateTask(c.Request.Context(), taskID, patch)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status
// Drives drag-and-drop column moves. The store merges local state only
// after the backend write is confirmed.
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if err := h.store.SetTaskStatus(c.Request.Context(), taskID, req.Status); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		}
		return
	}

	task, err := h.backend.GetTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id
// Deleting is a soft transition to ARCHIVED, not row removal.
func (h *Handler) DeleteTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	if err := h.store.ArchiveTask(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task archived successfully",
		"id":      taskID,
	})
}

// RestoreTask handles POST /api/tasks/:id/restore
// Returns an archived task to the board with status TODO.
func (h *Handler) RestoreTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	if err := h.store.RestoreTask(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task restored successfully",
		"id":      taskID,
	})
}
