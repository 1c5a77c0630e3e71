package store

import (
	"context"

	"kanban-board-api/internal/models"
)

// The mutators below write to the backend first and merge the confirmed row
// into local state only on success. On failure the store is left exactly as
// it was and the error is returned for the caller to surface; there is no
// automatic retry.

// SetTaskStatus writes a new status for the task and merges the confirmed
// row. This is the operation behind drag-and-drop column moves; distinct
// task ids can be moved concurrently without touching shared per-task state.
func (s *Store) SetTaskStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	task, err := s.backend.UpdateTaskStatus(ctx, taskID, status)
	if err != nil {
		return err
	}
	s.UpdateTask(task)
	return nil
}

// ArchiveTask soft-deletes a task by transitioning it to ARCHIVED. The row
// is never removed; it stays queryable via ArchivedTasks.
func (s *Store) ArchiveTask(ctx context.Context, taskID string) error {
	return s.SetTaskStatus(ctx, taskID, models.StatusArchived)
}

// RestoreTask returns an archived task to the board with status TODO.
func (s *Store) RestoreTask(ctx context.Context, taskID string) error {
	return s.SetTaskStatus(ctx, taskID, models.StatusTodo)
}

// AddComment persists a comment under its task and merges the confirmed row
// into the task's comment list.
func (s *Store) AddComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	created, err := s.backend.CreateComment(ctx, comment)
	if err != nil {
		return models.Comment{}, err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID != created.TaskID {
			continue
		}
		exists := false
		for _, c := range s.tasks[i].Comments {
			if c.ID == created.ID {
				exists = true
				break
			}
		}
		if !exists {
			s.tasks[i].Comments = append(s.tasks[i].Comments, created)
		}
		break
	}
	s.mu.Unlock()
	s.notify(CollectionTasks)
	return created, nil
}

// RemoveComment deletes a comment from the backend and filters it out of
// the owning task's comment list.
func (s *Store) RemoveComment(ctx context.Context, taskID, commentID string) error {
	if err := s.backend.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID != taskID {
			continue
		}
		// Filter into a fresh slice; the old backing array may still be
		// referenced by task copies handed out before the removal.
		comments := make([]models.Comment, 0, len(s.tasks[i].Comments))
		for _, c := range s.tasks[i].Comments {
			if c.ID != commentID {
				comments = append(comments, c)
			}
		}
		s.tasks[i].Comments = comments
		break
	}
	s.mu.Unlock()
	s.notify(CollectionTasks)
	return nil
}

// AddTeamMember asks the backend to create the membership (which fails with
// ErrDuplicateMembership when the pair exists) and merges the confirmed row,
// profile snapshot included, into the team's member list.
func (s *Store) AddTeamMember(ctx context.Context, teamID, userID string) (models.TeamMember, error) {
	member, err := s.backend.AddTeamMember(ctx, teamID, userID)
	if err != nil {
		return models.TeamMember{}, err
	}

	s.mu.Lock()
	for i := range s.teams {
		if s.teams[i].ID != teamID {
			continue
		}
		exists := false
		for _, m := range s.teams[i].Members {
			if m.UserID == member.UserID {
				exists = true
				break
			}
		}
		if !exists {
			s.teams[i].Members = append(s.teams[i].Members, member)
		}
		break
	}
	s.mu.Unlock()
	s.notify(CollectionTeams)
	return member, nil
}
