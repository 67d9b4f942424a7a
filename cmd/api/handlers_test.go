package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/internal/coordinator"
	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/middleware"
	"github.com/erivative/lingogate/internal/quota"
	"github.com/erivative/lingogate/pkg/models"
)

type fakeCoordinator struct {
	response *coordinator.Response
	err      error
	jobView  *coordinator.JobView
	jobErr   error
}

func (f *fakeCoordinator) Handle(_ context.Context, _ coordinator.Request) (*coordinator.Response, error) {
	return f.response, f.err
}

func (f *fakeCoordinator) JobStatus(_ context.Context, _ string) (*coordinator.JobView, error) {
	return f.jobView, f.jobErr
}

func (f *fakeCoordinator) QueueStatus(_ context.Context, _ int) (*models.QueueStatus, error) {
	return &models.QueueStatus{PendingCount: 2}, nil
}

func (f *fakeCoordinator) Stats(_ context.Context) (*coordinator.Stats, error) {
	return &coordinator.Stats{PendingJobs: 2, WhitelistMode: false, Answers: &models.AnswerStats{}}, nil
}

type fakeUserAdmin struct {
	users     map[int64]*models.User
	favorites map[int64][]string
}

func (f *fakeUserAdmin) GetUser(_ context.Context, userID int64) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserAdmin) UpdateUserDialect(_ context.Context, userID int64, dialect string) error {
	u, ok := f.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	u.Dialect = dialect
	return nil
}

func (f *fakeUserAdmin) UpdateUserContextMode(_ context.Context, userID int64, enabled bool) error {
	u, ok := f.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	u.ContextMode = enabled
	return nil
}

func (f *fakeUserAdmin) GrantTier(_ context.Context, userID int64, tier string, days int) error {
	u, ok := f.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	u.Tier = tier
	return nil
}

func (f *fakeUserAdmin) RevokeTier(_ context.Context, userID int64) error {
	u, ok := f.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	u.Tier = models.TierFree
	return nil
}

func (f *fakeUserAdmin) SetOverrideLimit(_ context.Context, userID int64, limit, days int) error {
	if _, ok := f.users[userID]; !ok {
		return models.ErrUserNotFound
	}
	f.users[userID].OverrideLimit = limit
	return nil
}

func (f *fakeUserAdmin) SetWhitelisted(_ context.Context, userID int64, whitelisted bool) error {
	if _, ok := f.users[userID]; !ok {
		return models.ErrUserNotFound
	}
	f.users[userID].Whitelisted = whitelisted
	return nil
}

func (f *fakeUserAdmin) SetAdmin(_ context.Context, userID int64, isAdmin bool) error {
	if _, ok := f.users[userID]; !ok {
		return models.ErrUserNotFound
	}
	f.users[userID].IsAdmin = isAdmin
	return nil
}

func (f *fakeUserAdmin) AddFavorite(_ context.Context, userID int64, text string) (bool, error) {
	for _, fav := range f.favorites[userID] {
		if fav == text {
			return false, nil
		}
	}
	f.favorites[userID] = append([]string{text}, f.favorites[userID]...)
	return true, nil
}

func (f *fakeUserAdmin) ListFavorites(_ context.Context, userID int64) ([]string, error) {
	return f.favorites[userID], nil
}

type fakeFeedbackStore struct {
	items      map[int64]*models.FeedbackItem
	approveErr error
}

func (f *fakeFeedbackStore) RecordFeedback(_ context.Context, text, dialect, generated, suggested string, userID int64) (*models.FeedbackItem, error) {
	return &models.FeedbackItem{ID: 1, Text: text, Dialect: dialect, Suggested: suggested, UserID: userID, Status: models.FeedbackStatusPending}, nil
}

func (f *fakeFeedbackStore) PendingFeedback(_ context.Context, limit int) ([]*models.FeedbackItem, error) {
	var out []*models.FeedbackItem
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeFeedbackStore) Approve(_ context.Context, feedbackID, admin int64, finalText string) (*models.FeedbackItem, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	item, ok := f.items[feedbackID]
	if !ok {
		return nil, models.ErrFeedbackNotFound
	}
	item.Status = models.FeedbackStatusApproved
	return item, nil
}

func (f *fakeFeedbackStore) Reject(_ context.Context, feedbackID, admin int64) (*models.FeedbackItem, error) {
	item, ok := f.items[feedbackID]
	if !ok {
		return nil, models.ErrFeedbackNotFound
	}
	item.Status = models.FeedbackStatusRejected
	return item, nil
}

type fakeToggler struct {
	enabled bool
}

func (f *fakeToggler) WhitelistMode() bool           { return f.enabled }
func (f *fakeToggler) SetWhitelistMode(enabled bool) { f.enabled = enabled }

type healthyDB struct{}

func (healthyDB) Health(_ context.Context) error { return nil }

func testAPI(t *testing.T, coord Coordinator) (*API, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetJWTSecret("test-secret")

	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)

	api := &API{
		coord: coord,
		repo: &fakeUserAdmin{
			users: map[int64]*models.User{
				42: {ID: 42, Tier: models.TierFree, Dialect: "standard"},
			},
			favorites: map[int64][]string{},
		},
		store:    &fakeFeedbackStore{items: map[int64]*models.FeedbackItem{}},
		resolver: &fakeToggler{},
		db:       healthyDB{},
		logger:   logger,
	}

	cfg := &config.Config{}
	cfg.Server.SurfaceRPS = 1000
	cfg.Server.SurfaceBurst = 1000

	return api, setupRouter(api, cfg, logger)
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func adminHeaders(t *testing.T) map[string]string {
	t.Helper()
	token, err := middleware.GenerateToken(7, true, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestTranslate_Served(t *testing.T) {
	coord := &fakeCoordinator{response: &coordinator.Response{
		Status:   coordinator.StatusServed,
		Result:   "bonjour",
		Origin:   models.OriginVerified,
		Decision: &quota.Decision{Allowed: true},
	}}
	_, router := testAPI(t, coord)

	w := doJSON(router, "POST", "/api/v1/translate",
		map[string]any{"user_id": 42, "text": "hello"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bonjour")
}

func TestTranslate_Enqueued(t *testing.T) {
	coord := &fakeCoordinator{response: &coordinator.Response{
		Status:   coordinator.StatusEnqueued,
		Decision: &quota.Decision{Allowed: true},
		Job:      &models.JobHandle{ID: "job-1", Position: 3},
	}}
	_, router := testAPI(t, coord)

	w := doJSON(router, "POST", "/api/v1/translate",
		map[string]any{"user_id": 42, "text": "hello"}, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestTranslate_QuotaRejected(t *testing.T) {
	coord := &fakeCoordinator{response: &coordinator.Response{
		Status: coordinator.StatusRejected,
		Decision: &quota.Decision{
			Allowed:    false,
			Reason:     quota.ReasonQuota,
			RetryAfter: 90 * time.Second,
		},
	}}
	_, router := testAPI(t, coord)

	w := doJSON(router, "POST", "/api/v1/translate",
		map[string]any{"user_id": 42, "text": "hello"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "91", w.Header().Get("Retry-After"))
}

func TestTranslate_WhitelistRejected(t *testing.T) {
	coord := &fakeCoordinator{response: &coordinator.Response{
		Status:   coordinator.StatusRejected,
		Decision: &quota.Decision{Allowed: false, Reason: quota.ReasonWhitelist},
	}}
	_, router := testAPI(t, coord)

	w := doJSON(router, "POST", "/api/v1/translate",
		map[string]any{"user_id": 42, "text": "hello"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTranslate_QueueFull(t *testing.T) {
	coord := &fakeCoordinator{err: models.ErrQueueFull}
	_, router := testAPI(t, coord)

	w := doJSON(router, "POST", "/api/v1/translate",
		map[string]any{"user_id": 42, "text": "hello"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTranslate_BadRequest(t *testing.T) {
	_, router := testAPI(t, &fakeCoordinator{})

	w := doJSON(router, "POST", "/api/v1/translate", map[string]any{"user_id": 42}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJob_NotFound(t *testing.T) {
	coord := &fakeCoordinator{jobErr: models.ErrJobNotFound}
	_, router := testAPI(t, coord)

	w := doJSON(router, "GET", "/api/v1/jobs/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJob_Queued(t *testing.T) {
	coord := &fakeCoordinator{jobView: &coordinator.JobView{
		Job:      &models.Job{ID: "job-1", Status: models.JobStatusQueued},
		Position: 2,
	}}
	_, router := testAPI(t, coord)

	w := doJSON(router, "GET", "/api/v1/jobs/job-1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"position":2`)
}

func TestSetDialect(t *testing.T) {
	api, router := testAPI(t, &fakeCoordinator{})

	w := doJSON(router, "PUT", "/api/v1/users/42/dialect",
		map[string]any{"dialect": "oran"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "oran", api.repo.(*fakeUserAdmin).users[42].Dialect)

	w = doJSON(router, "PUT", "/api/v1/users/42/dialect",
		map[string]any{"dialect": "klingon"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "PUT", "/api/v1/users/999/dialect",
		map[string]any{"dialect": "oran"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavorites(t *testing.T) {
	_, router := testAPI(t, &fakeCoordinator{})

	w := doJSON(router, "POST", "/api/v1/users/42/favorites",
		map[string]any{"text": "saha"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"added":true`)

	// Saving the same text again changes nothing.
	w = doJSON(router, "POST", "/api/v1/users/42/favorites",
		map[string]any{"text": "saha"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"added":false`)

	w = doJSON(router, "GET", "/api/v1/users/42/favorites", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doJSON(router, "POST", "/api/v1/users/42/favorites", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordFeedback(t *testing.T) {
	_, router := testAPI(t, &fakeCoordinator{})

	w := doJSON(router, "POST", "/api/v1/feedback", map[string]any{
		"user_id":   42,
		"text":      "hello",
		"suggested": "better translation",
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), models.FeedbackStatusPending)
}

func TestAdmin_RequiresAuth(t *testing.T) {
	_, router := testAPI(t, &fakeCoordinator{})

	w := doJSON(router, "GET", "/api/v1/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_GrantAndRevoke(t *testing.T) {
	api, router := testAPI(t, &fakeCoordinator{})
	headers := adminHeaders(t)

	w := doJSON(router, "POST", "/api/v1/admin/users/42/grant",
		map[string]any{"tier": "pro", "days": 30}, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TierPro, api.repo.(*fakeUserAdmin).users[42].Tier)

	w = doJSON(router, "POST", "/api/v1/admin/users/42/grant",
		map[string]any{"tier": "platinum"}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "POST", "/api/v1/admin/users/42/revoke", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TierFree, api.repo.(*fakeUserAdmin).users[42].Tier)
}

func TestAdmin_SetAdmin(t *testing.T) {
	api, router := testAPI(t, &fakeCoordinator{})
	headers := adminHeaders(t)

	w := doJSON(router, "POST", "/api/v1/admin/users/42/admin",
		map[string]any{"is_admin": true}, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, api.repo.(*fakeUserAdmin).users[42].IsAdmin)

	w = doJSON(router, "POST", "/api/v1/admin/users/42/admin",
		map[string]any{"is_admin": false}, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, api.repo.(*fakeUserAdmin).users[42].IsAdmin)

	w = doJSON(router, "POST", "/api/v1/admin/users/42/admin",
		map[string]any{}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "POST", "/api/v1/admin/users/999/admin",
		map[string]any{"is_admin": true}, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_WhitelistModeToggle(t *testing.T) {
	api, router := testAPI(t, &fakeCoordinator{})
	headers := adminHeaders(t)

	w := doJSON(router, "PUT", "/api/v1/admin/whitelist-mode",
		map[string]any{"enabled": true}, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, api.resolver.WhitelistMode())

	w = doJSON(router, "GET", "/api/v1/admin/whitelist-mode", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "true")
}

func TestAdmin_FeedbackReviewMapping(t *testing.T) {
	api, router := testAPI(t, &fakeCoordinator{})
	headers := adminHeaders(t)

	store := api.store.(*fakeFeedbackStore)
	store.items[5] = &models.FeedbackItem{ID: 5, Status: models.FeedbackStatusPending}

	w := doJSON(router, "POST", "/api/v1/admin/review/5/approve",
		map[string]any{"final_text": "better"}, headers)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "POST", "/api/v1/admin/review/999/approve",
		map[string]any{"final_text": "x"}, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	store.approveErr = models.ErrInvalidFeedbackState
	w = doJSON(router, "POST", "/api/v1/admin/review/5/approve",
		map[string]any{"final_text": "x"}, headers)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHealth(t *testing.T) {
	_, router := testAPI(t, &fakeCoordinator{})

	w := doJSON(router, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
