package backend

import (
	"context"
	"testing"

	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"
	"kanban-board-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *realtime.Feed) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	feed := realtime.NewFeed()
	return NewService(db, feed), feed
}

func seedBoard(t *testing.T, svc *Service) (models.Team, models.Project) {
	t.Helper()
	ctx := context.Background()
	team, err := svc.CreateTeam(ctx, models.Team{Name: "Avionics"})
	require.NoError(t, err)
	project, err := svc.CreateProject(ctx, models.Project{Name: "Engine Control", TeamID: team.ID})
	require.NoError(t, err)
	return team, project
}

func TestCreateTask_AssignsIDAndDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	_, project := seedBoard(t, svc)

	task, err := svc.CreateTask(context.Background(), models.Task{
		Title:     "Calibrate sensor",
		ProjectID: project.ID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, task.ID)
	require.Equal(t, models.StatusTodo, task.Status)
	require.Equal(t, models.PriorityMedium, task.Priority)
	require.NotNil(t, task.Labels)
}

func TestCreateTask_UnknownProjectFails(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateTask(context.Background(), models.Task{Title: "x", ProjectID: "ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTask_PublishesInsertEvent(t *testing.T) {
	svc, feed := newTestService(t)
	_, project := seedBoard(t, svc)

	sub := feed.Subscribe(realtime.TableTasks)
	defer sub.Unsubscribe()

	task, err := svc.CreateTask(context.Background(), models.Task{Title: "x", ProjectID: project.ID})
	require.NoError(t, err)

	evt := <-sub.Events()
	require.Equal(t, realtime.EventInsert, evt.Type)
	row, ok := evt.New.(models.Task)
	require.True(t, ok)
	require.Equal(t, task.ID, row.ID)
}

func TestUpdateTaskStatus_WritesOnlyStatus(t *testing.T) {
	svc, _ := newTestService(t)
	_, project := seedBoard(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, models.Task{Title: "keep me", Description: "desc", ProjectID: project.ID})
	require.NoError(t, err)

	updated, err := svc.UpdateTaskStatus(ctx, task.ID, models.StatusInReview)
	require.NoError(t, err)
	require.Equal(t, models.StatusInReview, updated.Status)
	require.Equal(t, "keep me", updated.Title)
	require.Equal(t, "desc", updated.Description)
}

func TestDeleteTeam_CascadesInStorage(t *testing.T) {
	svc, _ := newTestService(t)
	team, project := seedBoard(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, models.Task{Title: "x", ProjectID: project.ID})
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, models.Comment{TaskID: task.ID, Content: "c", AuthorID: "u-1"})
	require.NoError(t, err)

	otherTeam, err := svc.CreateTeam(ctx, models.Team{Name: "Other"})
	require.NoError(t, err)
	otherProject, err := svc.CreateProject(ctx, models.Project{Name: "Survivor", TeamID: otherTeam.ID})
	require.NoError(t, err)
	otherTask, err := svc.CreateTask(ctx, models.Task{Title: "stays", ProjectID: otherProject.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTeam(ctx, team.ID))

	_, err = svc.GetTask(ctx, task.ID)
	require.ErrorIs(t, err, ErrNotFound)

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, otherProject.ID, projects[0].ID)

	survivor, err := svc.GetTask(ctx, otherTask.ID)
	require.NoError(t, err)
	require.Equal(t, "stays", survivor.Title)
}

func TestDeleteCategory_ClearsProjectReference(t *testing.T) {
	svc, _ := newTestService(t)
	team, _ := seedBoard(t, svc)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, models.Category{Name: "Hardware"})
	require.NoError(t, err)
	project, err := svc.CreateProject(ctx, models.Project{
		Name:       "Categorized",
		TeamID:     team.ID,
		CategoryID: category.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, category.ID))

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	for _, p := range projects {
		if p.ID == project.ID {
			require.Empty(t, p.CategoryID)
			return
		}
	}
	t.Fatal("project disappeared with its category")
}

func TestAddTeamMember_DuplicateFails(t *testing.T) {
	svc, _ := newTestService(t)
	team, _ := seedBoard(t, svc)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, models.Profile{Email: "alex@example.com", FullName: "Alex", PasswordHash: "x"})
	require.NoError(t, err)

	member, err := svc.AddTeamMember(ctx, team.ID, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, member.Profile)
	require.Equal(t, "Alex", member.Profile.FullName)

	_, err = svc.AddTeamMember(ctx, team.ID, profile.ID)
	require.ErrorIs(t, err, ErrDuplicateMembership)
}

func TestListTeams_JoinsMemberProfiles(t *testing.T) {
	svc, _ := newTestService(t)
	team, _ := seedBoard(t, svc)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, models.Profile{Email: "alex@example.com", FullName: "Alex", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = svc.AddTeamMember(ctx, team.ID, profile.ID)
	require.NoError(t, err)

	teams, err := svc.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	require.Len(t, teams[0].Members, 1)
	require.NotNil(t, teams[0].Members[0].Profile)
	require.Equal(t, "alex@example.com", teams[0].Members[0].Profile.Email)
}

func TestListTasks_ExcludesArchivedByDefault(t *testing.T) {
	svc, _ := newTestService(t)
	_, project := seedBoard(t, svc)
	ctx := context.Background()

	active, err := svc.CreateTask(ctx, models.Task{Title: "active", ProjectID: project.ID})
	require.NoError(t, err)
	archived, err := svc.CreateTask(ctx, models.Task{Title: "archived", ProjectID: project.ID})
	require.NoError(t, err)
	_, err = svc.UpdateTaskStatus(ctx, archived.ID, models.StatusArchived)
	require.NoError(t, err)

	tasks, err := svc.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, active.ID, tasks[0].ID)

	all, err := svc.ListTasks(ctx, TaskFilter{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, all, 2)

	onlyArchived, err := svc.ListTasks(ctx, TaskFilter{Status: models.StatusArchived})
	require.NoError(t, err)
	require.Len(t, onlyArchived, 1)
	require.Equal(t, archived.ID, onlyArchived[0].ID)
}

func TestRecordIssueOpened_IdempotentPerRepoAndNumber(t *testing.T) {
	svc, feed := newTestService(t)
	_, project := seedBoard(t, svc)
	ctx := context.Background()

	repo, err := svc.CreateRepository(ctx, models.GithubRepository{
		GithubID:      101,
		FullName:      "acme/engine",
		ProjectID:     project.ID,
		WebhookSecret: "s3cr3t",
	})
	require.NoError(t, err)

	sub := feed.Subscribe(realtime.TableGithubIssues)
	defer sub.Unsubscribe()

	issue := models.GithubIssue{
		GithubID:     9001,
		RepositoryID: repo.ID,
		Number:       7,
		Title:        "Sensor drift",
		State:        "open",
	}

	first, err := svc.RecordIssueOpened(ctx, issue)
	require.NoError(t, err)
	second, err := svc.RecordIssueOpened(ctx, issue)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	// Exactly one INSERT reaches the feed for the duplicated delivery.
	<-sub.Events()
	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected second event: %+v", evt)
	default:
	}
}

func TestUpdateIssueState_TouchesOnlyState(t *testing.T) {
	svc, _ := newTestService(t)
	_, project := seedBoard(t, svc)
	ctx := context.Background()

	repo, err := svc.CreateRepository(ctx, models.GithubRepository{
		GithubID: 101, ProjectID: project.ID, WebhookSecret: "x",
	})
	require.NoError(t, err)

	issue, err := svc.RecordIssueOpened(ctx, models.GithubIssue{
		GithubID: 9001, RepositoryID: repo.ID, Number: 7,
		Title: "Sensor drift", Body: "details", State: "open",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateIssueState(ctx, issue.GithubID, "closed")
	require.NoError(t, err)
	require.Equal(t, "closed", updated.State)
	require.Equal(t, "Sensor drift", updated.Title)
	require.Equal(t, "details", updated.Body)
}

func TestUpdateIssueContent_TouchesOnlyTitleAndBody(t *testing.T) {
	svc, _ := newTestService(t)
	_, project := seedBoard(t, svc)
	ctx := context.Background()

	repo, err := svc.CreateRepository(ctx, models.GithubRepository{
		GithubID: 101, ProjectID: project.ID, WebhookSecret: "x",
	})
	require.NoError(t, err)

	issue, err := svc.RecordIssueOpened(ctx, models.GithubIssue{
		GithubID: 9001, RepositoryID: repo.ID, Number: 7,
		Title: "old", Body: "old body", State: "open",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateIssueContent(ctx, issue.GithubID, "new", "new body")
	require.NoError(t, err)
	require.Equal(t, "new", updated.Title)
	require.Equal(t, "new body", updated.Body)
	require.Equal(t, "open", updated.State)
}
