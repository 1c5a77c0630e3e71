package syncbridge

import (
	"context"
	"fmt"
	"log"
	"sync"

	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"
	"kanban-board-api/internal/store"
)

// IssueLabel tags tasks created from external issues.
const IssueLabel = "github-issue"

// Bridge keeps the entity store consistent with canonical backend state:
// it installs the initial snapshot, folds realtime change events into the
// store, and turns external-issue rows into tasks.
type Bridge struct {
	store   *store.Store
	backend *backend.Service
	feed    *realtime.Feed
}

// New wires a bridge between the store, the backend service, and the feed.
func New(st *store.Store, svc *backend.Service, feed *realtime.Feed) *Bridge {
	return &Bridge{store: st, backend: svc, feed: feed}
}

// LoadInitial fetches full snapshots of teams, projects, tasks, and
// categories in parallel and installs them. If any fetch fails nothing is
// installed and the store keeps its prior state.
func (b *Bridge) LoadInitial(ctx context.Context) error {
	var (
		wg         sync.WaitGroup
		teams      []models.Team
		projects   []models.Project
		tasks      []models.Task
		categories []models.Category
		errs       [4]error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		teams, errs[0] = b.backend.ListTeams(ctx)
	}()
	go func() {
		defer wg.Done()
		projects, errs[1] = b.backend.ListProjects(ctx)
	}()
	go func() {
		defer wg.Done()
		tasks, errs[2] = b.backend.ListTasks(ctx, backend.TaskFilter{IncludeArchived: true})
	}()
	go func() {
		defer wg.Done()
		categories, errs[3] = b.backend.ListCategories(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("initial load: %w", err)
		}
	}

	b.store.ReplaceTeams(teams)
	b.store.ReplaceProjects(projects)
	b.store.ReplaceTasks(tasks)
	b.store.ReplaceCategories(categories)
	return nil
}

// Run subscribes to the change feed and folds events into the store until
// the context is cancelled. A malformed event never stops the loop; it is
// logged and skipped.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.feed.Subscribe(
		realtime.TableTeams,
		realtime.TableProjects,
		realtime.TableCategories,
		realtime.TableTasks,
		realtime.TableGithubIssues,
	)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			b.handleEvent(ctx, event)
		}
	}
}

func (b *Bridge) handleEvent(ctx context.Context, event realtime.Event) {
	switch event.Table {
	case realtime.TableTasks:
		b.handleTaskEvent(event)
	case realtime.TableProjects:
		b.handleProjectEvent(event)
	case realtime.TableCategories:
		b.handleCategoryEvent(event)
	case realtime.TableTeams:
		b.handleTeamEvent(event)
	case realtime.TableGithubIssues:
		b.handleIssueEvent(ctx, event)
	}
}

func (b *Bridge) handleTaskEvent(event realtime.Event) {
	switch event.Type {
	case realtime.EventInsert, realtime.EventUpdate:
		task, ok := event.New.(models.Task)
		if !ok {
			log.Printf("sync: dropping malformed %s event for %s", event.Type, event.Table)
			return
		}
		if event.Type == realtime.EventInsert {
			b.store.InsertTask(task)
		} else {
			b.store.UpdateTask(task)
		}
	case realtime.EventDelete:
		task, ok := event.Old.(models.Task)
		if !ok {
			log.Printf("sync: dropping malformed DELETE event for %s", event.Table)
			return
		}
		b.store.RemoveTask(task.ID)
	}
}

func (b *Bridge) handleProjectEvent(event realtime.Event) {
	switch event.Type {
	case realtime.EventInsert, realtime.EventUpdate:
		project, ok := event.New.(models.Project)
		if !ok {
			log.Printf("sync: dropping malformed %s event for %s", event.Type, event.Table)
			return
		}
		if event.Type == realtime.EventInsert {
			b.store.InsertProject(project)
		} else {
			b.store.UpdateProject(project)
		}
	case realtime.EventDelete:
		project, ok := event.Old.(models.Project)
		if !ok {
			log.Printf("sync: dropping malformed DELETE event for %s", event.Table)
			return
		}
		b.store.RemoveProject(project.ID)
	}
}

func (b *Bridge) handleCategoryEvent(event realtime.Event) {
	switch event.Type {
	case realtime.EventInsert, realtime.EventUpdate:
		category, ok := event.New.(models.Category)
		if !ok {
			log.Printf("sync: dropping malformed %s event for %s", event.Type, event.Table)
			return
		}
		if event.Type == realtime.EventInsert {
			b.store.InsertCategory(category)
		} else {
			b.store.UpdateCategory(category)
		}
	case realtime.EventDelete:
		category, ok := event.Old.(models.Category)
		if !ok {
			log.Printf("sync: dropping malformed DELETE event for %s", event.Table)
			return
		}
		b.store.RemoveCategory(category.ID)
	}
}

func (b *Bridge) handleTeamEvent(event realtime.Event) {
	switch event.Type {
	case realtime.EventInsert, realtime.EventUpdate:
		team, ok := event.New.(models.Team)
		if !ok {
			log.Printf("sync: dropping malformed %s event for %s", event.Type, event.Table)
			return
		}
		b.store.InsertTeam(team)
	case realtime.EventDelete:
		team, ok := event.Old.(models.Team)
		if !ok {
			log.Printf("sync: dropping malformed DELETE event for %s", event.Table)
			return
		}
		b.store.RemoveTeam(team.ID)
	}
}

// handleIssueEvent is the second leg of the webhook bridge. A fresh issue
// row becomes a task and the issue is stamped with the task id; an issue
// state change propagates to the linked task. Each step that fails aborts
// this invocation without retrying; steps already committed stay committed
// (at-least-once, not exactly-once).
func (b *Bridge) handleIssueEvent(ctx context.Context, event realtime.Event) {
	// Issue deletions carry Old, not New, and have no task-side
	// transition; acknowledge and move on.
	if event.Type == realtime.EventDelete {
		log.Printf("sync: ignoring DELETE event for %s", event.Table)
		return
	}

	issue, ok := event.New.(models.GithubIssue)
	if !ok {
		log.Printf("sync: dropping malformed %s event for %s", event.Type, event.Table)
		return
	}

	switch event.Type {
	case realtime.EventInsert:
		b.createTaskForIssue(ctx, issue)
	case realtime.EventUpdate:
		b.propagateIssueState(ctx, issue)
	}
}

func (b *Bridge) createTaskForIssue(ctx context.Context, issue models.GithubIssue) {
	if issue.TaskID != "" {
		return
	}

	repo, err := b.backend.GetRepository(ctx, issue.RepositoryID)
	if err != nil {
		log.Printf("sync: repository %s for issue #%d not resolvable: %v", issue.RepositoryID, issue.Number, err)
		return
	}

	task, err := b.backend.CreateTask(ctx, models.Task{
		Title:       issue.Title,
		Description: fmt.Sprintf("GitHub Issue #%d\n\n%s", issue.Number, issue.Body),
		Status:      models.StatusTodo,
		Priority:    models.PriorityMedium,
		ProjectID:   repo.ProjectID,
		Labels:      []string{IssueLabel},
	})
	if err != nil {
		log.Printf("sync: creating task for issue #%d: %v", issue.Number, err)
		return
	}

	if err := b.backend.SetIssueTask(ctx, issue.ID, task.ID); err != nil {
		log.Printf("sync: stamping issue #%d with task %s: %v", issue.Number, task.ID, err)
	}
}

func (b *Bridge) propagateIssueState(ctx context.Context, issue models.GithubIssue) {
	if issue.TaskID == "" {
		return
	}

	status := models.StatusTodo
	if issue.State == "closed" {
		status = models.StatusDone
	}

	if err := b.store.SetTaskStatus(ctx, issue.TaskID, status); err != nil {
		log.Printf("sync: propagating issue #%d state to task %s: %v", issue.Number, issue.TaskID, err)
	}
}
