package store

import (
	"context"
	"sync"

	"kanban-board-api/internal/models"
)

// Backend is the slice of the storage service the store's asynchronous
// mutators need. Writes go to the backend first; local state is only merged
// after the backend confirms, so a failed write never leaves the store in a
// half-applied state.
type Backend interface {
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error)
	CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	AddTeamMember(ctx context.Context, teamID, userID string) (models.TeamMember, error)
}

// Collection identifies one of the store's entity collections in change
// notifications.
type Collection string

const (
	CollectionTeams      Collection = "teams"
	CollectionProjects   Collection = "projects"
	CollectionTasks      Collection = "tasks"
	CollectionCategories Collection = "categories"
	CollectionProfile    Collection = "profile"
)

// Change notes that a collection's contents changed. Consumers re-read the
// collection through the accessors; the note itself carries no rows.
type Change struct {
	Collection Collection
}

// Store is the in-process source of truth for all entity collections the
// board renders. It is an explicit object handed to its consumers, not a
// package global; all access goes through its methods. Every mutation is a
// single lock-guarded merge step, performed only after any backend I/O has
// resolved.
type Store struct {
	backend Backend

	mu         sync.RWMutex
	profile    *models.Profile
	teams      []models.Team
	projects   []models.Project
	tasks      []models.Task
	categories []models.Category

	subMu sync.Mutex
	subs  map[chan Change]struct{}
}

// New constructs an empty store over the given backend.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		subs:    make(map[chan Change]struct{}),
	}
}

// Subscribe returns a channel of change notes and a cancel function. A
// subscriber that stops draining loses notes rather than blocking mutators.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify(collections ...Collection) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, col := range collections {
		for ch := range s.subs {
			select {
			case ch <- Change{Collection: col}:
			default:
			}
		}
	}
}

// SetProfile installs the current user's profile (nil on sign-out).
func (s *Store) SetProfile(profile *models.Profile) {
	s.mu.Lock()
	if profile != nil {
		p := *profile
		s.profile = &p
	} else {
		s.profile = nil
	}
	s.mu.Unlock()
	s.notify(CollectionProfile)
}

// Profile returns a copy of the current user's profile, or nil.
func (s *Store) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// ReplaceTeams bulk-sets the teams collection from a full fetch.
func (s *Store) ReplaceTeams(teams []models.Team) {
	s.mu.Lock()
	s.teams = append([]models.Team(nil), teams...)
	s.mu.Unlock()
	s.notify(CollectionTeams)
}

// ReplaceProjects bulk-sets the projects collection from a full fetch.
func (s *Store) ReplaceProjects(projects []models.Project) {
	s.mu.Lock()
	s.projects = append([]models.Project(nil), projects...)
	s.mu.Unlock()
	s.notify(CollectionProjects)
}

// ReplaceTasks bulk-sets the tasks collection from a full fetch.
func (s *Store) ReplaceTasks(tasks []models.Task) {
	s.mu.Lock()
	s.tasks = append([]models.Task(nil), tasks...)
	s.mu.Unlock()
	s.notify(CollectionTasks)
}

// ReplaceCategories bulk-sets the categories collection from a full fetch.
func (s *Store) ReplaceCategories(categories []models.Category) {
	s.mu.Lock()
	s.categories = append([]models.Category(nil), categories...)
	s.mu.Unlock()
	s.notify(CollectionCategories)
}

// Teams returns a copy of the teams collection.
func (s *Store) Teams() []models.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Team(nil), s.teams...)
}

// Projects returns a copy of the projects collection.
func (s *Store) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Project(nil), s.projects...)
}

// Tasks returns a copy of the tasks collection, archived included.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Task(nil), s.tasks...)
}

// Categories returns a copy of the categories collection.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Category(nil), s.categories...)
}

// Task returns the task with the given id.
func (s *Store) Task(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Team returns the team with the given id.
func (s *Store) Team(id string) (models.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teams {
		if t.ID == id {
			return t, true
		}
	}
	return models.Team{}, false
}

// ProjectTasks returns the non-archived tasks of one project, preserving
// collection order.
func (s *Store) ProjectTasks(projectID string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []models.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID && t.Status != models.StatusArchived {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// ArchivedTasks returns every task currently in the archived state.
func (s *Store) ArchivedTasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []models.Task
	for _, t := range s.tasks {
		if t.Status == models.StatusArchived {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// AllMembers returns the members of every team, for mention resolution.
func (s *Store) AllMembers() []models.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []models.TeamMember
	for _, team := range s.teams {
		members = append(members, team.Members...)
	}
	return members
}

// InsertTeam adds a team; inserting an id that is already present replaces
// the held record instead of duplicating it.
func (s *Store) InsertTeam(team models.Team) {
	s.mu.Lock()
	replaced := false
	for i := range s.teams {
		if s.teams[i].ID == team.ID {
			s.teams[i] = team
			replaced = true
			break
		}
	}
	if !replaced {
		s.teams = append(s.teams, team)
	}
	s.mu.Unlock()
	s.notify(CollectionTeams)
}

// InsertProject adds a project, idempotently by id.
func (s *Store) InsertProject(project models.Project) {
	s.mu.Lock()
	replaced := false
	for i := range s.projects {
		if s.projects[i].ID == project.ID {
			s.projects[i] = project
			replaced = true
			break
		}
	}
	if !replaced {
		s.projects = append(s.projects, project)
	}
	s.mu.Unlock()
	s.notify(CollectionProjects)
}

// InsertTask prepends a task (newest first), idempotently by id. An
// optimistic insert followed by the echoed realtime INSERT lands on the
// same record.
func (s *Store) InsertTask(task models.Task) {
	s.mu.Lock()
	replaced := false
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = mergeTask(s.tasks[i], task)
			replaced = true
			break
		}
	}
	if !replaced {
		s.tasks = append([]models.Task{task}, s.tasks...)
	}
	s.mu.Unlock()
	s.notify(CollectionTasks)
}

// InsertCategory adds a category, idempotently by id.
func (s *Store) InsertCategory(category models.Category) {
	s.mu.Lock()
	replaced := false
	for i := range s.categories {
		if s.categories[i].ID == category.ID {
			s.categories[i] = category
			replaced = true
			break
		}
	}
	if !replaced {
		s.categories = append(s.categories, category)
	}
	s.mu.Unlock()
	s.notify(CollectionCategories)
}

// UpdateTask merges a row into the record matched by id; unknown ids are a
// no-op. Realtime rows arrive without the comment join, so an incoming nil
// comment list keeps the comments already held.
func (s *Store) UpdateTask(task models.Task) {
	s.mu.Lock()
	changed := false
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = mergeTask(s.tasks[i], task)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify(CollectionTasks)
	}
}

// UpdateProject replaces the record matched by id; unknown ids are a no-op.
func (s *Store) UpdateProject(project models.Project) {
	s.mu.Lock()
	changed := false
	for i := range s.projects {
		if s.projects[i].ID == project.ID {
			s.projects[i] = project
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify(CollectionProjects)
	}
}

// UpdateCategory replaces the record matched by id; unknown ids are a no-op.
func (s *Store) UpdateCategory(category models.Category) {
	s.mu.Lock()
	changed := false
	for i := range s.categories {
		if s.categories[i].ID == category.ID {
			s.categories[i] = category
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify(CollectionCategories)
	}
}

// RemoveTeam removes a team and cascades to its projects and transitively
// their tasks. Tasks of other teams are untouched.
func (s *Store) RemoveTeam(teamID string) {
	s.mu.Lock()
	removedProjects := make(map[string]struct{})
	projects := s.projects[:0]
	for _, p := range s.projects {
		if p.TeamID == teamID {
			removedProjects[p.ID] = struct{}{}
			continue
		}
		projects = append(projects, p)
	}
	s.projects = projects

	tasks := s.tasks[:0]
	for _, t := range s.tasks {
		if _, gone := removedProjects[t.ProjectID]; gone {
			continue
		}
		tasks = append(tasks, t)
	}
	s.tasks = tasks

	teams := s.teams[:0]
	for _, t := range s.teams {
		if t.ID != teamID {
			teams = append(teams, t)
		}
	}
	s.teams = teams
	s.mu.Unlock()
	s.notify(CollectionTeams, CollectionProjects, CollectionTasks)
}

// RemoveProject removes a project and cascades to its tasks.
func (s *Store) RemoveProject(projectID string) {
	s.mu.Lock()
	projects := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != projectID {
			projects = append(projects, p)
		}
	}
	s.projects = projects

	tasks := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			tasks = append(tasks, t)
		}
	}
	s.tasks = tasks
	s.mu.Unlock()
	s.notify(CollectionProjects, CollectionTasks)
}

// RemoveTask removes a task. No further cascade: comments live on the task
// record itself.
func (s *Store) RemoveTask(taskID string) {
	s.mu.Lock()
	tasks := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != taskID {
			tasks = append(tasks, t)
		}
	}
	s.tasks = tasks
	s.mu.Unlock()
	s.notify(CollectionTasks)
}

// RemoveCategory removes a category. Projects referencing it survive with
// the category reference cleared.
func (s *Store) RemoveCategory(categoryID string) {
	s.mu.Lock()
	categories := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != categoryID {
			categories = append(categories, c)
		}
	}
	s.categories = categories

	for i := range s.projects {
		if s.projects[i].CategoryID == categoryID {
			s.projects[i].CategoryID = ""
		}
	}
	s.mu.Unlock()
	s.notify(CollectionCategories, CollectionProjects)
}

// mergeTask folds an incoming row into the held one. Incoming rows from the
// change feed carry no comment join, so a nil Comments keeps the held list.
func mergeTask(held, incoming models.Task) models.Task {
	if incoming.Comments == nil {
		incoming.Comments = held.Comments
	}
	if incoming.Assignee == nil {
		incoming.Assignee = held.Assignee
	}
	return incoming
}
