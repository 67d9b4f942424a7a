package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erivative/lingogate/internal/coordinator"
	"github.com/erivative/lingogate/internal/dictionary"
	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/quota"
	"github.com/erivative/lingogate/pkg/models"
)

// Coordinator is the request-processing core as the handlers see it
type Coordinator interface {
	Handle(ctx context.Context, req coordinator.Request) (*coordinator.Response, error)
	JobStatus(ctx context.Context, id string) (*coordinator.JobView, error)
	QueueStatus(ctx context.Context, limit int) (*models.QueueStatus, error)
	Stats(ctx context.Context) (*coordinator.Stats, error)
}

// UserAdmin covers the user management operations of the admin surface
type UserAdmin interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateUserDialect(ctx context.Context, userID int64, dialect string) error
	UpdateUserContextMode(ctx context.Context, userID int64, enabled bool) error
	GrantTier(ctx context.Context, userID int64, tier string, days int) error
	RevokeTier(ctx context.Context, userID int64) error
	SetOverrideLimit(ctx context.Context, userID int64, limit, days int) error
	SetWhitelisted(ctx context.Context, userID int64, whitelisted bool) error
	SetAdmin(ctx context.Context, userID int64, isAdmin bool) error
	AddFavorite(ctx context.Context, userID int64, text string) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]string, error)
}

// FeedbackStore covers the feedback review workflow
type FeedbackStore interface {
	RecordFeedback(ctx context.Context, text, dialect, generated, suggested string, userID int64) (*models.FeedbackItem, error)
	PendingFeedback(ctx context.Context, limit int) ([]*models.FeedbackItem, error)
	Approve(ctx context.Context, feedbackID, admin int64, finalText string) (*models.FeedbackItem, error)
	Reject(ctx context.Context, feedbackID, admin int64) (*models.FeedbackItem, error)
}

// WhitelistToggler exposes the process-wide whitelist mode switch
type WhitelistToggler interface {
	WhitelistMode() bool
	SetWhitelistMode(enabled bool)
}

// HealthChecker reports storage health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// API holds the handler dependencies
type API struct {
	coord    Coordinator
	repo     UserAdmin
	store    FeedbackStore
	resolver WhitelistToggler
	db       HealthChecker
	logger   *logging.Logger
}

var validDialects = map[string]bool{
	"standard":    true,
	"algiers":     true,
	"oran":        true,
	"constantine": true,
}

var validTiers = map[string]bool{
	models.TierFree:      true,
	models.TierBasic:     true,
	models.TierPro:       true,
	models.TierUnlimited: true,
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

type translateRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username"`
	Text     string `json:"text" binding:"required"`
}

// Translate endpoint: served answers return 200, queued work returns 202
// with a handle, quota denials return 429 with the exact retry-after.
func (api *API) translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and text are required"})
		return
	}

	resp, err := api.coord.Handle(c.Request.Context(), coordinator.Request{
		UserID:   req.UserID,
		Username: req.Username,
		Text:     req.Text,
	})
	if errors.Is(err, models.ErrQueueFull) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue is full, try again later"})
		return
	}
	if err != nil {
		api.logger.WithUserID(req.UserID).ErrorWithErr("Translate request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	switch resp.Status {
	case coordinator.StatusRejected:
		if resp.Decision.Reason == quota.ReasonWhitelist {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "Access restricted to whitelisted and paying users",
				"decision": resp.Decision,
			})
			return
		}
		c.Header("Retry-After", strconv.Itoa(int(resp.Decision.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":               "Quota exceeded",
			"retry_after_seconds": resp.Decision.RetryAfter.Seconds(),
			"decision":            resp.Decision,
		})
	case coordinator.StatusEnqueued:
		c.JSON(http.StatusAccepted, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// Job status endpoint
func (api *API) getJob(c *gin.Context) {
	view, err := api.coord.JobStatus(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, view)
}

type feedbackRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
	Dialect   string `json:"dialect"`
	Generated string `json:"generated"`
	Suggested string `json:"suggested" binding:"required"`
}

// Feedback endpoint files a proposed correction for review
func (api *API) recordFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, text and suggested are required"})
		return
	}
	if req.Dialect == "" {
		req.Dialect = models.DefaultDialect
	}
	if !validDialects[req.Dialect] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown dialect"})
		return
	}

	item, err := api.store.RecordFeedback(c.Request.Context(),
		req.Text, req.Dialect, req.Generated, req.Suggested, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

type dialectRequest struct {
	Dialect string `json:"dialect" binding:"required"`
}

// Dialect preference endpoint
func (api *API) setDialect(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req dialectRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validDialects[req.Dialect] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown dialect"})
		return
	}

	if err := api.repo.UpdateUserDialect(c.Request.Context(), userID, req.Dialect); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "dialect": req.Dialect})
}

type contextModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Context mode endpoint
func (api *API) setContextMode(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req contextModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}

	if err := api.repo.UpdateUserContextMode(c.Request.Context(), userID, *req.Enabled); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "context_mode": *req.Enabled})
}

type favoriteRequest struct {
	Text string `json:"text" binding:"required"`
}

// Save a text to the user's favorites; saving it twice is a no-op
func (api *API) addFavorite(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	added, err := api.repo.AddFavorite(c.Request.Context(), userID, req.Text)
	if err != nil {
		respondUserError(c, err)
		return
	}

	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"user_id": userID, "text": req.Text, "added": added})
}

// List the user's favorites, newest first
func (api *API) listFavorites(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	texts, err := api.repo.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "favorites": texts, "count": len(texts)})
}

// Offline dictionary listing
func (api *API) dictionaryWords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"words": dictionary.Words()})
}

func parseUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return userID, true
}

func respondUserError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}
