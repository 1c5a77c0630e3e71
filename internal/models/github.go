package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GithubRepository links an external GitHub repository to a local project.
// WebhookSecret is the per-repository shared secret used to verify inbound
// webhook signatures; it never leaves the server.
type GithubRepository struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	GithubID      int64     `json:"github_id" gorm:"uniqueIndex;not null"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	HTMLURL       string    `json:"html_url"`
	ProjectID     string    `json:"project_id" gorm:"not null;index"`
	WebhookSecret string    `json:"-" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (GithubRepository) TableName() string {
	return "github_repositories"
}

func (r *GithubRepository) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// GithubIssue mirrors an issue from a linked repository. The unique index
// on (repository_id, number) makes duplicate webhook deliveries upsert into
// the same row instead of creating a second one. TaskID is back-filled once
// the bridge has created the local task for the issue.
type GithubIssue struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	GithubID     int64     `json:"github_id" gorm:"index;not null"`
	RepositoryID string    `json:"repository_id" gorm:"not null;uniqueIndex:idx_issue_repo_number"`
	Number       int       `json:"number" gorm:"not null;uniqueIndex:idx_issue_repo_number"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	State        string    `json:"state"`
	HTMLURL      string    `json:"html_url"`
	Author       string    `json:"author"`
	TaskID       string    `json:"task_id,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (GithubIssue) TableName() string {
	return "github_issues"
}

func (i *GithubIssue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
