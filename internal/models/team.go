package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team represents a team in the system
type Team struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"not null"`
	Description string       `json:"description"`
	Members     []TeamMember `json:"members" gorm:"foreignKey:TeamID"`
	CreatedAt   time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TeamMember links a profile to a team. A user appears at most once per
// team; the composite primary key enforces it at the storage layer.
// Profile is a denormalized snapshot resolved at read time.
type TeamMember struct {
	TeamID    string    `json:"team_id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	Profile   *Profile  `json:"profile,omitempty" gorm:"foreignKey:UserID;references:ID"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
