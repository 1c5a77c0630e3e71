package main

import (
	"context"
	"log"

	"kanban-board-api/internal/auth"
	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/config"
	"kanban-board-api/internal/database"
	"kanban-board-api/internal/handlers"
	"kanban-board-api/internal/realtime"
	"kanban-board-api/internal/routes"
	"kanban-board-api/internal/store"
	"kanban-board-api/internal/syncbridge"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	gin.SetMode(cfg.GinMode)
	auth.Configure(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	logLevel := logger.Info
	if cfg.GinMode == gin.ReleaseMode {
		logLevel = logger.Warn
	}
	db, err := database.Open(cfg.DBPath, logLevel)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	log.Println("Database connected and migrated successfully")

	feed := realtime.NewFeed()
	svc := backend.NewService(db, feed)
	st := store.New(svc)
	bridge := syncbridge.New(st, svc, feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bridge.LoadInitial(ctx); err != nil {
		log.Fatal("Failed to load initial snapshot: ", err)
	}
	go bridge.Run(ctx)

	router := routes.Setup(handlers.New(svc, st, feed))

	log.Printf("Server starting on port %s", cfg.Port)
	log.Println("API endpoints:")
	log.Println("  POST   /api/login")
	log.Println("  GET    /api/teams")
	log.Println("  GET    /api/projects")
	log.Println("  GET    /api/tasks")
	log.Println("  PATCH  /api/tasks/:id/status")
	log.Println("  POST   /api/github/webhook")
	log.Println("  GET    /api/ws")
	log.Println("  GET    /health")

	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
