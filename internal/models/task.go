package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
	StatusArchived   TaskStatus = "ARCHIVED"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusArchived:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityUrgent TaskPriority = "URGENT"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityLow    TaskPriority = "LOW"
)

// ValidPriority reports whether p is one of the known task priorities.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task represents a card on the board. "Deleting" a task is a soft
// transition to ARCHIVED; archived tasks stay queryable and restorable.
type Task struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status" gorm:"not null;default:'TODO'"`
	Priority    TaskPriority `json:"priority" gorm:"default:'MEDIUM'"`
	ProjectID   string       `json:"project_id" gorm:"not null;index"`
	AssigneeID  string       `json:"assignee_id,omitempty" gorm:"index"`
	Assignee    *Profile     `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID;references:ID"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Labels      []string     `json:"labels" gorm:"serializer:json"`
	Comments    []Comment    `json:"comments" gorm:"foreignKey:TaskID"`
	CreatedAt   time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Comment belongs to a task. Mentions holds the user ids resolved from
// "@name" tokens in the content; unmatched names are dropped at parse time.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"not null"`
	TaskID    string    `json:"task_id" gorm:"not null;index"`
	AuthorID  string    `json:"author_id" gorm:"not null"`
	Mentions  []string  `json:"mentions" gorm:"serializer:json"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
