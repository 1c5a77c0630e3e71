package handlers

import (
	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/cache"
	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"
	"kanban-board-api/internal/store"
)

// Handler carries the dependencies every endpoint needs. It is constructed
// once in main and injected into the router; nothing here is package-global
// state.
type Handler struct {
	backend *backend.Service
	store   *store.Store
	feed    *realtime.Feed
	// repos caches repository links by external id so webhook bursts do
	// not hit the database for every delivery.
	repos *cache.TTLCache[int64, models.GithubRepository]
}

// New constructs a Handler over the given collaborators.
func New(svc *backend.Service, st *store.Store, feed *realtime.Feed) *Handler {
	return &Handler{
		backend: svc,
		store:   st,
		feed:    feed,
		repos:   cache.New[int64, models.GithubRepository](),
	}
}
