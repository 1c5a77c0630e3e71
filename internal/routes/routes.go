package routes

import (
	"kanban-board-api/internal/handlers"
	"kanban-board-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Setup builds the router over an injected handler set.
func Setup(h *handlers.Handler) *gin.Engine {
	router := gin.Default()

	// The webhook contract answers 405 for non-POST methods.
	router.HandleMethodNotAllowed = true

	// CORS middleware (for frontend integration)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Kanban board API is running",
		})
	})

	// Public routes (no authentication required)
	api := router.Group("/api")
	{
		api.POST("/login", h.Login)
		// Signed deliveries from GitHub; authenticity comes from the
		// HMAC signature, not a bearer token.
		api.POST("/github/webhook", h.GithubWebhook)
	}

	// Protected routes (authentication required)
	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", h.GetProfile)
		protected.PUT("/profile", h.UpdateProfile)
		protected.GET("/users", h.GetAllUsers)

		protected.GET("/teams", h.GetTeams)
		protected.POST("/teams", h.CreateTeam)
		protected.DELETE("/teams/:id", h.DeleteTeam)
		protected.POST("/teams/:id/members", h.AddTeamMember)

		protected.GET("/projects", h.GetProjects)
		protected.POST("/projects", h.CreateProject)
		protected.DELETE("/projects/:id", h.DeleteProject)

		protected.GET("/categories", h.GetCategories)
		protected.POST("/categories", h.CreateCategory)
		protected.DELETE("/categories/:id", h.DeleteCategory)

		protected.GET("/tasks", h.GetTasks)
		protected.GET("/tasks/archived", h.GetArchivedTasks)
		protected.GET("/tasks/:id", h.GetTaskByID)
		protected.POST("/tasks", h.CreateTask)
		protected.PUT("/tasks/:id", h.UpdateTask)
		protected.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
		protected.DELETE("/tasks/:id", h.DeleteTask)
		protected.POST("/tasks/:id/restore", h.RestoreTask)

		protected.POST("/tasks/:id/comments", h.CreateComment)
		protected.DELETE("/tasks/:id/comments/:commentId", h.DeleteComment)

		protected.GET("/github/repositories", h.GetRepositories)
		protected.POST("/github/repositories", h.CreateRepository)

		protected.GET("/ws", h.WebSocket)
	}

	return router
}
