package handlers

import (
	"errors"
	"net/http"

	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/models"
	"kanban-board-api/internal/store"

	"github.com/gin-gonic/gin"
)

// CreateCommentRequest represents the request payload for commenting on a task
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateComment handles POST /api/tasks/:id/comments
// Mentions are parsed server-side from "@name" tokens against team member
// display names; unmatched names are dropped.
func (h *Handler) CreateComment(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mentions := store.ParseMentions(req.Content, h.store.AllMembers())

	comment, err := h.store.AddComment(c.Request.Context(), models.Comment{
		Content:  req.Content,
		TaskID:   taskID,
		AuthorID: userID,
		Mentions: mentions,
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		}
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/tasks/:id/comments/:commentId
func (h *Handler) DeleteComment(c *gin.Context) {
	taskID := c.Param("id")
	commentID := c.Param("commentId")
	if taskID == "" || commentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID and comment ID are required"})
		return
	}

	if err := h.store.RemoveComment(c.Request.Context(), taskID, commentID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
		"id":      commentID,
	})
}
