package backend

import (
	"context"

	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"

	"gorm.io/gorm"
)

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory inserts a category and publishes the confirmed row.
func (s *Service) CreateCategory(ctx context.Context, category models.Category) (models.Category, error) {
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return models.Category{}, err
	}
	s.publish(realtime.EventInsert, realtime.TableCategories, category, nil)
	return category, nil
}

// DeleteCategory removes a category. Projects referencing it survive with
// their category reference cleared.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&category).Error; err != nil {
			return mapNotFound(err)
		}
		if err := tx.Model(&models.Project{}).
			Where("category_id = ?", id).
			Update("category_id", "").Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	s.publish(realtime.EventDelete, realtime.TableCategories, nil, category)
	return nil
}

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.WithContext(ctx).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject inserts a project after validating its owning team exists.
func (s *Service) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", project.TeamID).First(&models.Team{}).Error; err != nil {
		return models.Project{}, mapNotFound(err)
	}
	if err := db.Create(&project).Error; err != nil {
		return models.Project{}, err
	}
	s.publish(realtime.EventInsert, realtime.TableProjects, project, nil)
	return project, nil
}

// DeleteProject removes a project and its tasks (with their comments).
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	var project models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&project).Error; err != nil {
			return mapNotFound(err)
		}
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	s.publish(realtime.EventDelete, realtime.TableProjects, nil, project)
	return nil
}
