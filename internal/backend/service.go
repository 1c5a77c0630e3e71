package backend

import (
	"context"
	"errors"

	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateMembership is returned when a user is already a member
	// of the target team.
	ErrDuplicateMembership = errors.New("user is already a member of this team")
)

// Service is the storage collaborator behind the entity store and the HTTP
// handlers. Every committed write is published onto the realtime feed so
// subscribers (sync bridge, websocket clients) observe canonical rows.
type Service struct {
	db   *gorm.DB
	feed *realtime.Feed
}

// NewService wires a Service onto an open database handle and a feed.
func NewService(db *gorm.DB, feed *realtime.Feed) *Service {
	return &Service{db: db, feed: feed}
}

func (s *Service) publish(eventType realtime.EventType, table string, newRow, oldRow any) {
	s.feed.Publish(realtime.Event{
		Type:  eventType,
		Table: table,
		New:   newRow,
		Old:   oldRow,
	})
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// GetProfileByEmail looks a profile up by its unique email.
func (s *Service) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if err != nil {
		return models.Profile{}, mapNotFound(err)
	}
	return profile, nil
}

// GetProfile returns the profile with the given id.
func (s *Service) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return models.Profile{}, mapNotFound(err)
	}
	return profile, nil
}

// CreateProfile inserts a new profile; the id is assigned on insert.
func (s *Service) CreateProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// ProfilePatch carries optional profile fields for partial updates.
type ProfilePatch struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfile merges the patch into an existing profile.
func (s *Service) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return models.Profile{}, mapNotFound(err)
	}
	if patch.FullName != nil {
		profile.FullName = *patch.FullName
	}
	if patch.AvatarURL != nil {
		profile.AvatarURL = *patch.AvatarURL
	}
	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// ListProfiles returns all profiles (the member directory).
func (s *Service) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// ListTeams returns all teams with member profile snapshots joined in.
func (s *Service) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).Preload("Members.Profile").Find(&teams).Error
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if teams[i].Members == nil {
			teams[i].Members = []models.TeamMember{}
		}
	}
	return teams, nil
}

// CreateTeam inserts a team and publishes the confirmed row.
func (s *Service) CreateTeam(ctx context.Context, team models.Team) (models.Team, error) {
	team.Members = nil
	if err := s.db.WithContext(ctx).Create(&team).Error; err != nil {
		return models.Team{}, err
	}
	team.Members = []models.TeamMember{}
	s.publish(realtime.EventInsert, realtime.TableTeams, team, nil)
	return team, nil
}

// DeleteTeam removes a team together with its memberships, projects, those
// projects' tasks, and the tasks' comments, in one transaction. A single
// team DELETE event is published; clients cascade the dependent removals
// themselves.
func (s *Service) DeleteTeam(ctx context.Context, id string) error {
	var team models.Team
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&team).Error; err != nil {
			return mapNotFound(err)
		}

		projectIDs := tx.Model(&models.Project{}).Select("id").Where("team_id = ?", id)
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id IN (?)", projectIDs)

		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id IN (?)", projectIDs).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	s.publish(realtime.EventDelete, realtime.TableTeams, nil, team)
	return nil
}

// AddTeamMember inserts a (team_id, user_id) membership after checking that
// it does not already exist, and returns the row with the member's profile
// snapshot resolved.
func (s *Service) AddTeamMember(ctx context.Context, teamID, userID string) (models.TeamMember, error) {
	db := s.db.WithContext(ctx)

	if err := db.Where("id = ?", teamID).First(&models.Team{}).Error; err != nil {
		return models.TeamMember{}, mapNotFound(err)
	}

	var profile models.Profile
	if err := db.Where("id = ?", userID).First(&profile).Error; err != nil {
		return models.TeamMember{}, mapNotFound(err)
	}

	var count int64
	if err := db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error; err != nil {
		return models.TeamMember{}, err
	}
	if count > 0 {
		return models.TeamMember{}, ErrDuplicateMembership
	}

	member := models.TeamMember{TeamID: teamID, UserID: userID}
	if err := db.Create(&member).Error; err != nil {
		return models.TeamMember{}, err
	}
	member.Profile = &profile
	return member, nil
}
