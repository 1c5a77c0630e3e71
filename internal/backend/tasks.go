package backend

import (
	"context"
	"time"

	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"

	"gorm.io/gorm"
)

// TaskFilter narrows ListTasks. Archived tasks are excluded unless the
// filter asks for them explicitly.
type TaskFilter struct {
	ProjectID       string
	Status          models.TaskStatus
	Priority        models.TaskPriority
	AssigneeID      string
	IncludeArchived bool
}

// ListTasks returns tasks with assignee and comment joins, newest first.
// Comments come back ordered by creation time.
func (s *Service) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := s.db.WithContext(ctx).
		Preload("Assignee").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Order("created_at desc")

	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else if !filter.IncludeArchived {
		query = query.Where("status <> ?", models.StatusArchived)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.AssigneeID != "" {
		query = query.Where("assignee_id = ?", filter.AssigneeID)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	for i := range tasks {
		normalizeTask(&tasks[i])
	}
	return tasks, nil
}

// GetTask returns a single task with its joins resolved.
func (s *Service) GetTask(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Preload("Assignee").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return models.Task{}, mapNotFound(err)
	}
	normalizeTask(&task)
	return task, nil
}

// CreateTask inserts a task after validating its project, applying the
// TODO/MEDIUM defaults, and publishes the confirmed row.
func (s *Service) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", task.ProjectID).First(&models.Project{}).Error; err != nil {
		return models.Task{}, mapNotFound(err)
	}

	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	task.Comments = nil

	if err := db.Create(&task).Error; err != nil {
		return models.Task{}, err
	}
	normalizeTask(&task)
	if task.AssigneeID != "" {
		var assignee models.Profile
		if err := db.Where("id = ?", task.AssigneeID).First(&assignee).Error; err == nil {
			task.Assignee = &assignee
		}
	}
	s.publish(realtime.EventInsert, realtime.TableTasks, task, nil)
	return task, nil
}

// TaskPatch carries optional task fields for partial updates.
type TaskPatch struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	AssigneeID  *string              `json:"assignee_id"`
	DueDate     *time.Time           `json:"due_date"`
	Labels      *[]string            `json:"labels"`
}

// UpdateTask merges the patch into an existing task and publishes the
// confirmed row.
func (s *Service) UpdateTask(ctx context.Context, id string, patch TaskPatch) (models.Task, error) {
	db := s.db.WithContext(ctx)

	var task models.Task
	if err := db.Where("id = ?", id).First(&task).Error; err != nil {
		return models.Task{}, mapNotFound(err)
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.AssigneeID != nil {
		task.AssigneeID = *patch.AssigneeID
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Labels != nil {
		task.Labels = *patch.Labels
	}

	if err := db.Save(&task).Error; err != nil {
		return models.Task{}, err
	}

	updated, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	s.publish(realtime.EventUpdate, realtime.TableTasks, updated, nil)
	return updated, nil
}

// UpdateTaskStatus writes only the status column. This is the write behind
// drag-and-drop column moves as well as archive and restore.
func (s *Service) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	db := s.db.WithContext(ctx)

	var task models.Task
	if err := db.Where("id = ?", id).First(&task).Error; err != nil {
		return models.Task{}, mapNotFound(err)
	}

	if err := db.Model(&task).Update("status", status).Error; err != nil {
		return models.Task{}, err
	}

	updated, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	s.publish(realtime.EventUpdate, realtime.TableTasks, updated, nil)
	return updated, nil
}

// CreateComment inserts a comment under an existing task.
func (s *Service) CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", comment.TaskID).First(&models.Task{}).Error; err != nil {
		return models.Comment{}, mapNotFound(err)
	}
	if comment.Mentions == nil {
		comment.Mentions = []string{}
	}
	if err := db.Create(&comment).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes a comment by id.
func (s *Service) DeleteComment(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", id).First(&models.Comment{}).Error; err != nil {
		return mapNotFound(err)
	}
	return db.Delete(&models.Comment{}, "id = ?", id).Error
}

// normalizeTask replaces nil slices so JSON payloads carry [] instead of
// null; the store and websocket clients rely on the shape.
func normalizeTask(task *models.Task) {
	if task.Labels == nil {
		task.Labels = []string{}
	}
	if task.Comments == nil {
		task.Comments = []models.Comment{}
	}
}
