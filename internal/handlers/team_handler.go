package handlers

import (
	"errors"
	"net/http"

	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateTeamRequest represents the request payload for creating a team
type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GetTeams handles GET /api/teams
// Returns all teams with member profile snapshots joined in.
func (h *Handler) GetTeams(c *gin.Context) {
	teams, err := h.backend.ListTeams(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch teams"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": teams,
		"count": len(teams),
	})
}

// CreateTeam handles POST /api/teams
func (h *Handler) CreateTeam(c *gin.Context) {
	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.backend.CreateTeam(c.Request.Context(), models.Team{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
		return
	}

	c.JSON(http.StatusCreated, team)
}

// DeleteTeam handles DELETE /api/teams/:id
// Removes the team and cascades to its projects and their tasks.
func (h *Handler) DeleteTeam(c *gin.Context) {
	teamID := c.Param("id")
	if teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Team ID is required"})
		return
	}

	if err := h.backend.DeleteTeam(c.Request.Context(), teamID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Team deleted successfully",
		"id":      teamID,
	})
}

// AddTeamMemberRequest represents the request payload for joining a team
type AddTeamMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AddTeamMember handles POST /api/teams/:id/members
// Fails with 409 when the user is already a member of the team.
func (h *Handler) AddTeamMember(c *gin.Context) {
	teamID := c.Param("id")
	if teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Team ID is required"})
		return
	}

	var req AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.store.AddTeamMember(c.Request.Context(), teamID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrDuplicateMembership):
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this team"})
		case errors.Is(err, backend.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Team or user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add team member"})
		}
		return
	}

	c.JSON(http.StatusCreated, member)
}
