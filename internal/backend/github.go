package backend

import (
	"context"

	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"
)

// CreateRepository links an external repository to a local project. The
// webhook secret is generated by the caller and stored verbatim.
func (s *Service) CreateRepository(ctx context.Context, repo models.GithubRepository) (models.GithubRepository, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", repo.ProjectID).First(&models.Project{}).Error; err != nil {
		return models.GithubRepository{}, mapNotFound(err)
	}
	if err := db.Create(&repo).Error; err != nil {
		return models.GithubRepository{}, err
	}
	return repo, nil
}

// ListRepositories returns all linked repositories.
func (s *Service) ListRepositories(ctx context.Context) ([]models.GithubRepository, error) {
	var repos []models.GithubRepository
	if err := s.db.WithContext(ctx).Find(&repos).Error; err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepository returns the repository link with the given local id.
func (s *Service) GetRepository(ctx context.Context, id string) (models.GithubRepository, error) {
	var repo models.GithubRepository
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&repo).Error
	if err != nil {
		return models.GithubRepository{}, mapNotFound(err)
	}
	return repo, nil
}

// GetRepositoryByGithubID looks a repository link up by the external
// numeric repository id carried in webhook payloads.
func (s *Service) GetRepositoryByGithubID(ctx context.Context, githubID int64) (models.GithubRepository, error) {
	var repo models.GithubRepository
	err := s.db.WithContext(ctx).Where("github_id = ?", githubID).First(&repo).Error
	if err != nil {
		return models.GithubRepository{}, mapNotFound(err)
	}
	return repo, nil
}

// RecordIssueOpened persists a freshly opened issue. Delivery is
// at-least-once: if a row for (repository_id, number) already exists the
// call returns it unchanged and publishes nothing, so a duplicated webhook
// cannot fan a second INSERT through the bridge.
func (s *Service) RecordIssueOpened(ctx context.Context, issue models.GithubIssue) (models.GithubIssue, error) {
	db := s.db.WithContext(ctx)

	var existing models.GithubIssue
	err := db.Where("repository_id = ? AND number = ?", issue.RepositoryID, issue.Number).
		First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if mapNotFound(err) != ErrNotFound {
		return models.GithubIssue{}, err
	}

	if err := db.Create(&issue).Error; err != nil {
		return models.GithubIssue{}, err
	}
	s.publish(realtime.EventInsert, realtime.TableGithubIssues, issue, nil)
	return issue, nil
}

// UpdateIssueState writes only the state field of the issue identified by
// its external id, and publishes the refreshed row.
func (s *Service) UpdateIssueState(ctx context.Context, githubID int64, state string) (models.GithubIssue, error) {
	return s.updateIssue(ctx, githubID, map[string]any{"state": state})
}

// UpdateIssueContent writes only the title and body fields of the issue
// identified by its external id.
func (s *Service) UpdateIssueContent(ctx context.Context, githubID int64, title, body string) (models.GithubIssue, error) {
	return s.updateIssue(ctx, githubID, map[string]any{"title": title, "body": body})
}

func (s *Service) updateIssue(ctx context.Context, githubID int64, fields map[string]any) (models.GithubIssue, error) {
	db := s.db.WithContext(ctx)

	var issue models.GithubIssue
	if err := db.Where("github_id = ?", githubID).First(&issue).Error; err != nil {
		return models.GithubIssue{}, mapNotFound(err)
	}
	if err := db.Model(&issue).Updates(fields).Error; err != nil {
		return models.GithubIssue{}, err
	}
	if err := db.Where("id = ?", issue.ID).First(&issue).Error; err != nil {
		return models.GithubIssue{}, mapNotFound(err)
	}
	s.publish(realtime.EventUpdate, realtime.TableGithubIssues, issue, nil)
	return issue, nil
}

// SetIssueTask back-fills the task id onto an issue row once the bridge has
// created the linked task. This is bookkeeping internal to the bridge, so
// no event is published for it.
func (s *Service) SetIssueTask(ctx context.Context, issueID, taskID string) error {
	result := s.db.WithContext(ctx).Model(&models.GithubIssue{}).
		Where("id = ?", issueID).
		Update("task_id", taskID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
