package handlers

import (
	"errors"
	"net/http"

	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateProjectRequest represents the request payload for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	TeamID      string `json:"team_id" binding:"required"`
	CategoryID  string `json:"category_id"`
	Color       string `json:"color"`
}

// GetProjects handles GET /api/projects
func (h *Handler) GetProjects(c *gin.Context) {
	projects, err := h.backend.ListProjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.backend.CreateProject(c.Request.Context(), models.Project{
		Name:        req.Name,
		Description: req.Description,
		TeamID:      req.TeamID,
		CategoryID:  req.CategoryID,
		Color:       req.Color,
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team_id: team not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		}
		return
	}

	c.JSON(http.StatusCreated, project)
}

// DeleteProject handles DELETE /api/projects/:id
// Removes the project and cascades to its tasks.
func (h *Handler) DeleteProject(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	if err := h.backend.DeleteProject(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
		"id":      projectID,
	})
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// GetCategories handles GET /api/categories
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.backend.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// CreateCategory handles POST /api/categories
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.backend.CreateCategory(c.Request.Context(), models.Category{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

// DeleteCategory handles DELETE /api/categories/:id
// Projects referencing the category keep existing with the reference cleared.
func (h *Handler) DeleteCategory(c *gin.Context) {
	categoryID := c.Param("id")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category ID is required"})
		return
	}

	if err := h.backend.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted successfully",
		"id":      categoryID,
	})
}
