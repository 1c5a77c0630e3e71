package handlers

import (
	"errors"
	"net/http"

	"kanban-board-api/internal/auth"
	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token   string         `json:"token"`
	Profile models.Profile `json:"profile"`
	Message string         `json:"message"`
}

// Login handles POST /api/login. The profile is created lazily on first
// sign-in; subsequent logins verify the password against the stored hash.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Email and password are required.",
		})
		return
	}

	profile, err := h.backend.GetProfileByEmail(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
			return
		}
		profile, err = h.backend.CreateProfile(c.Request.Context(), models.Profile{
			Email:        req.Email,
			FullName:     req.FullName,
			PasswordHash: string(hash),
		})
		if err != nil {
			// Two concurrent first sign-ins race the lazy create; the
			// loser trips the unique email index. Re-read and verify
			// against the winner's row instead of failing.
			profile, err = h.backend.GetProfileByEmail(c.Request.Context(), req.Email)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
				return
			}
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up profile"})
		return
	default:
		if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
	}

	token, err := auth.GenerateToken(profile.ID, profile.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		Profile: profile,
		Message: "Login successful",
	})
}

// GetProfile handles GET /api/profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	profile, err := h.backend.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		}
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var patch backend.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.backend.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		}
		return
	}

	if current := h.store.Profile(); current != nil && current.ID == profile.ID {
		h.store.SetProfile(&profile)
	}
	c.JSON(http.StatusOK, profile)
}

// GetAllUsers handles GET /api/users, the member directory behind the
// mention picker.
func (h *Handler) GetAllUsers(c *gin.Context) {
	profiles, err := h.backend.ListProfiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": profiles,
		"count": len(profiles),
	})
}
