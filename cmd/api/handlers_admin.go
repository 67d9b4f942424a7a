package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/erivative/lingogate/internal/middleware"
	"github.com/erivative/lingogate/pkg/models"
)

type grantRequest struct {
	Tier string `json:"tier" binding:"required"`
	Days int    `json:"days"`
}

// Grant a paid tier; days <= 0 means no expiry
func (api *API) grantTier(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validTiers[req.Tier] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tier"})
		return
	}

	if err := api.repo.GrantTier(c.Request.Context(), userID, req.Tier, req.Days); err != nil {
		respondUserError(c, err)
		return
	}

	user, err := api.repo.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Revoke any paid tier, reverting the user to Free
func (api *API) revokeTier(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := api.repo.RevokeTier(c.Request.Context(), userID); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "tier": models.TierFree})
}

type overrideRequest struct {
	Limit int `json:"limit" binding:"required"`
	Days  int `json:"days"`
}

// Set a manual per-user limit override
func (api *API) setOverride(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	if err := api.repo.SetOverrideLimit(c.Request.Context(), userID, req.Limit, req.Days); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "override_limit": req.Limit, "days": req.Days})
}

type whitelistRequest struct {
	Whitelisted *bool `json:"whitelisted" binding:"required"`
}

// Add or remove a user from the whitelist
func (api *API) setWhitelisted(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req whitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "whitelisted is required"})
		return
	}

	if err := api.repo.SetWhitelisted(c.Request.Context(), userID, *req.Whitelisted); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "whitelisted": *req.Whitelisted})
}

type adminRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

// Grant or revoke admin standing. Admins bypass quota counting and hold the
// review surface, so the change is logged against the acting admin.
func (api *API) setAdmin(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_admin is required"})
		return
	}

	if err := api.repo.SetAdmin(c.Request.Context(), userID, *req.IsAdmin); err != nil {
		respondUserError(c, err)
		return
	}

	adminID, _ := middleware.GetAdminID(c)
	api.logger.WithUserID(adminID).Infof("Admin standing for user %d set to %v", userID, *req.IsAdmin)

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_admin": *req.IsAdmin})
}

// Get a user's resolved state
func (api *API) getUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := api.repo.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Whitelist mode state
func (api *API) getWhitelistMode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": api.resolver.WhitelistMode()})
}

type whitelistModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Toggle whitelist mode process-wide
func (api *API) setWhitelistMode(c *gin.Context) {
	var req whitelistModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}

	api.resolver.SetWhitelistMode(*req.Enabled)

	adminID, _ := middleware.GetAdminID(c)
	api.logger.WithUserID(adminID).Infof("Whitelist mode set to %v", *req.Enabled)

	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

// List pending feedback, oldest first
func (api *API) listPendingFeedback(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	items, err := api.store.PendingFeedback(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type approveRequest struct {
	FinalText string `json:"final_text"`
}

// Approve a pending feedback item, promoting its text to verified
func (api *API) approveFeedback(c *gin.Context) {
	feedbackID, ok := parseFeedbackID(c)
	if !ok {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}

	item, err := api.store.Approve(c.Request.Context(), feedbackID, adminID, req.FinalText)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Reject a pending feedback item
func (api *API) rejectFeedback(c *gin.Context) {
	feedbackID, ok := parseFeedbackID(c)
	if !ok {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	item, err := api.store.Reject(c.Request.Context(), feedbackID, adminID)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Combined service statistics
func (api *API) getStats(c *gin.Context) {
	stats, err := api.coord.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Queue snapshot, FIFO order
func (api *API) getQueueStatus(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	status, err := api.coord.QueueStatus(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, status)
}

func parseFeedbackID(c *gin.Context) (int64, bool) {
	feedbackID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback id"})
		return 0, false
	}
	return feedbackID, true
}

func respondFeedbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrFeedbackNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
	case errors.Is(err, models.ErrInvalidFeedbackState):
		c.JSON(http.StatusConflict, gin.H{"error": "Feedback already reviewed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
