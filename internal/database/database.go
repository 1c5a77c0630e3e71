package database

import (
	"kanban-board-api/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens the SQLite database at path (created if missing) and runs
// migrations. Using glebarez/sqlite which is a pure Go implementation
// (no CGO required). The handle is returned rather than held in a package
// global so callers wire it explicitly.
func Open(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for all entity tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Team{},
		&models.TeamMember{},
		&models.Category{},
		&models.Project{},
		&models.Task{},
		&models.Comment{},
		&models.GithubRepository{},
		&models.GithubIssue{},
	)
}
