package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
)

const repoCacheTTL = 5 * time.Minute

// webhookPayload is the subset of the GitHub webhook body the handler
// reads; everything else in the delivery is ignored.
type webhookPayload struct {
	Action string `json:"action"`
	Issue  *struct {
		ID      int64  `json:"id"`
		Number  int    `json:"number"`
		Title   string `json:"title"`
		Body    string `json:"body"`
		State   string `json:"state"`
		HTMLURL string `json:"html_url"`
		User    struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"issue"`
	Repository struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// verifyWebhookSignature checks the X-Hub-Signature-256 value against an
// HMAC-SHA256 of the raw payload using the repository's shared secret.
func verifyWebhookSignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// GithubWebhook handles POST /api/github/webhook
// The route accepts POST only; the router answers 405 for anything else.
func (h *Handler) GithubWebhook(c *gin.Context) {
	signature := c.GetHeader("X-Hub-Signature-256")
	event := c.GetHeader("X-GitHub-Event")
	if signature == "" || event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required headers"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read request body"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed payload"})
		return
	}

	repo, err := h.repositoryByGithubID(c, payload.Repository.ID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Repository not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	if !verifyWebhookSignature(body, signature, repo.WebhookSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid signature"})
		return
	}

	switch event {
	case "issues":
		if err := h.handleIssueEvent(c, repo, payload); err != nil {
			log.Printf("webhook: issue event %q for %s: %v", payload.Action, repo.FullName, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
	case "issue_comment", "pull_request":
		// Accepted but not acted on yet.
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported event type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook processed successfully"})
}

func (h *Handler) repositoryByGithubID(c *gin.Context, githubID int64) (models.GithubRepository, error) {
	if repo, ok := h.repos.Get(githubID); ok {
		return repo, nil
	}
	repo, err := h.backend.GetRepositoryByGithubID(c.Request.Context(), githubID)
	if err != nil {
		return models.GithubRepository{}, err
	}
	h.repos.Set(githubID, repo, repoCacheTTL)
	return repo, nil
}

func (h *Handler) handleIssueEvent(c *gin.Context, repo models.GithubRepository, payload webhookPayload) error {
	if payload.Issue == nil {
		return nil
	}
	ctx := c.Request.Context()

	switch payload.Action {
	case "opened":
		_, err := h.backend.RecordIssueOpened(ctx, models.GithubIssue{
			GithubID:     payload.Issue.ID,
			RepositoryID: repo.ID,
			Number:       payload.Issue.Number,
			Title:        payload.Issue.Title,
			Body:         payload.Issue.Body,
			State:        payload.Issue.State,
			HTMLURL:      payload.Issue.HTMLURL,
			Author:       payload.Issue.User.Login,
		})
		return err
	case "closed", "reopened":
		_, err := h.backend.UpdateIssueState(ctx, payload.Issue.ID, payload.Issue.State)
		return err
	case "edited":
		_, err := h.backend.UpdateIssueContent(ctx, payload.Issue.ID, payload.Issue.Title, payload.Issue.Body)
		return err
	}
	// Other issue sub-actions (labeled, assigned, ...) are acknowledged
	// without a mutation.
	return nil
}

// CreateRepositoryRequest represents the payload for linking a repository
type CreateRepositoryRequest struct {
	GithubID  int64  `json:"github_id" binding:"required"`
	Name      string `json:"name"`
	FullName  string `json:"full_name" binding:"required"`
	HTMLURL   string `json:"html_url"`
	ProjectID string `json:"project_id" binding:"required"`
}

// CreateRepositoryResponse carries the stored link plus the generated
// webhook secret. The secret is shown once, at registration time.
type CreateRepositoryResponse struct {
	Repository    models.GithubRepository `json:"repository"`
	WebhookSecret string                  `json:"webhook_secret"`
}

// CreateRepository handles POST /api/github/repositories
func (h *Handler) CreateRepository(c *gin.Context) {
	var req CreateRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secret, err := generateWebhookSecret()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate webhook secret"})
		return
	}

	repo, err := h.backend.CreateRepository(c.Request.Context(), models.GithubRepository{
		GithubID:      req.GithubID,
		Name:          req.Name,
		FullName:      req.FullName,
		HTMLURL:       req.HTMLURL,
		ProjectID:     req.ProjectID,
		WebhookSecret: secret,
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project_id: project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link repository"})
		}
		return
	}
	h.repos.Delete(req.GithubID)

	c.JSON(http.StatusCreated, CreateRepositoryResponse{
		Repository:    repo,
		WebhookSecret: secret,
	})
}

// GetRepositories handles GET /api/github/repositories
func (h *Handler) GetRepositories(c *gin.Context) {
	repos, err := h.backend.ListRepositories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch repositories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"repositories": repos,
		"count":        len(repos),
	})
}

func generateWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
