package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clickguard/internal/mocks"
	"clickguard/internal/models"
	"clickguard/internal/service"
)

// memSignalStore is a SignalStore with no click history and a map blacklist
type memSignalStore struct {
	mu        sync.Mutex
	blacklist map[string]*models.BlacklistEntry
	updates   []models.SessionRiskUpdate
}

func newMemSignalStore() *memSignalStore {
	return &memSignalStore{blacklist: make(map[string]*models.BlacklistEntry)}
}

func (s *memSignalStore) CountClickEvents(context.Context, models.ClickFilter, time.Time) (int, error) {
	return 0, nil
}

func (s *memSignalStore) FindRecentClickCoordinates(context.Context, string, time.Time) ([]models.Coordinate, error) {
	return nil, nil
}

func (s *memSignalStore) CountDistinctFingerprintsForIP(context.Context, string, time.Time) (int, error) {
	return 0, nil
}

func (s *memSignalStore) FindBlacklistByFingerprint(_ context.Context, fp string) (*models.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist[fp], nil
}

func (s *memSignalStore) FindBlacklistByIP(_ context.Context, ip string) (*models.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.blacklist {
		if e.IPAddress == ip {
			return e, nil
		}
	}
	return nil, nil
}

func (s *memSignalStore) UpsertBlacklist(_ context.Context, entry *models.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[entry.Fingerprint] = entry
	return nil
}

func (s *memSignalStore) UpdateSessionRisk(_ context.Context, update models.SessionRiskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	return nil
}

type testServer struct {
	router    *gin.Engine
	signals   *memSignalStore
	sessions  *mocks.MockSessionStore
	sites     *mocks.MockSiteStore
	pageViews *mocks.MockPageViewStore
	clicks    *mocks.MockClickStore
	decisions *mocks.MockDecisionLog
	stats     *mocks.MockStatsStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	ts := &testServer{
		signals:   newMemSignalStore(),
		sessions:  new(mocks.MockSessionStore),
		sites:     new(mocks.MockSiteStore),
		pageViews: new(mocks.MockPageViewStore),
		clicks:    new(mocks.MockClickStore),
		decisions: new(mocks.MockDecisionLog),
		stats:     new(mocks.MockStatsStore),
	}

	log := zap.NewNop()
	// a fixed afternoon keeps the night-hour rule out of these tests
	afternoon := time.Date(2024, 3, 1, 14, 0, 0, 0, time.Local)
	engine := service.NewFraudEngine(ts.signals, service.DefaultRules(), log,
		service.WithClock(func() time.Time { return afternoon }))

	sessionSvc := service.NewSessionService(ts.sessions, ts.sites, engine.Blacklist(), nil, nil, log)
	pageViewSvc := service.NewPageViewService(ts.sessions, ts.sites, ts.pageViews, nil, log)
	clickSvc := service.NewClickService(engine, ts.signals, ts.sessions, ts.sites, ts.clicks, ts.decisions, nil, log)
	statsSvc := service.NewStatsService(ts.stats, ts.sites, 400)
	siteSvc := service.NewSiteService(ts.sites, log)

	tracking := NewTrackingHandler(sessionSvc, pageViewSvc, clickSvc, log)
	fraud := NewFraudHandler(engine, clickSvc, statsSvc, log)
	blacklist := NewBlacklistHandler(engine.Blacklist(), nil, log)
	sites := NewSiteHandler(siteSvc, log)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/analytics/session", tracking.StartSession)
	v1.POST("/analytics/pageview", tracking.EnterPage)
	v1.PATCH("/analytics/pageview", tracking.ExitPage)
	v1.POST("/analytics/click", tracking.TrackClick)
	v1.POST("/fraud/check", fraud.CheckFraud)
	v1.GET("/fraud/results/:click_id", fraud.GetFraudResult)
	v1.GET("/fraud/stats", fraud.GetFraudStats)
	v1.GET("/blacklist/check", blacklist.CheckBlacklist)
	v1.POST("/blacklist", blacklist.AddToBlacklist)
	v1.GET("/admin/sites", sites.ListSites)
	v1.POST("/admin/sites", sites.CreateSite)
	v1.DELETE("/admin/sites/:id", sites.DeleteSite)
	ts.router = r

	return ts
}

func (ts *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestStartSession(t *testing.T) {
	ts := newTestServer(t)
	ts.signals.blacklist["fp-bad"] = &models.BlacklistEntry{Fingerprint: "fp-bad"}
	ts.sessions.On("FindRecentSession", mock.Anything, "fp-1", mock.Anything).Return(nil, nil)
	ts.sessions.On("CreateSession", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
		return s.IPAddress == "203.0.113.5" && s.UserAgent == "test-agent"
	})).Return(nil)

	t.Run("missing fingerprint", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/analytics/session", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("blacklisted visitor", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/analytics/session", map[string]string{"fingerprint": "fp-bad"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		body := decode(t, w)
		assert.Nil(t, body["sessionId"])
		assert.Equal(t, true, body["isBlocked"])
	})

	t.Run("new session", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/analytics/session", map[string]string{"fingerprint": "fp-1"},
			"X-Forwarded-For", "203.0.113.5, 10.0.0.1",
			"User-Agent", "test-agent")
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.NotEmpty(t, body["sessionId"])
		assert.Equal(t, true, body["isNew"])
	})
}

func TestTrackClick(t *testing.T) {
	ts := newTestServer(t)
	ts.sessions.On("GetSession", mock.Anything, "missing").Return(nil, models.ErrNotFound)
	ts.sessions.On("GetSession", mock.Anything, "s-1").Return(&models.Session{ID: "s-1", Fingerprint: "fp-1", CountryCode: "KR"}, nil)
	ts.sessions.On("GetSession", mock.Anything, "s-blocked").Return(&models.Session{ID: "s-blocked", IsBlocked: true, RiskScore: 100}, nil)
	ts.clicks.On("CreateClickEvent", mock.Anything, mock.Anything).Return(nil)
	ts.decisions.On("SaveDecision", mock.Anything, mock.Anything).Return(nil)

	t.Run("unknown event type", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/analytics/click", map[string]interface{}{
			"sessionId": "s-1", "eventType": "double_click",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/analytics/click", map[string]interface{}{
			"sessionId": "missing", "eventType": "ad_click",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("blocked session gets the short reply", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/analytics/click", map[string]interface{}{
			"sessionId": "s-blocked", "eventType": "cta_click",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]interface{}{
			"clickId": nil,
			"isFraud": true,
			"action":  "block",
		}, decode(t, w))
	})

	t.Run("low engagement ad click is blocked", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/analytics/click", map[string]interface{}{
			"sessionId":                 "s-1",
			"eventType":                 "ad_click",
			"dwellTimeBeforeClick":      1,
			"scrollDepthBeforeClick":    2,
			"mouseMovementsBeforeClick": 0,
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.NotEmpty(t, body["clickId"])
		assert.Equal(t, true, body["isFraud"])
		assert.Equal(t, float64(80), body["riskScore"])
		assert.Equal(t, "block", body["action"])
		assert.Len(t, body["reasons"], 3)
	})
}

func TestPageViews(t *testing.T) {
	ts := newTestServer(t)
	ts.sessions.On("GetSession", mock.Anything, "s-blocked").Return(&models.Session{ID: "s-blocked", IsBlocked: true}, nil)
	ts.pageViews.On("RecordExit", mock.Anything, mock.Anything, mock.Anything).Return("", models.ErrNotFound)

	w := ts.do(http.MethodPost, "/api/v1/analytics/pageview", map[string]string{"sessionId": "s-blocked", "path": "/"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Nil(t, body["pageViewId"])
	assert.Equal(t, true, body["isBlocked"])

	w = ts.do(http.MethodPatch, "/api/v1/analytics/pageview", map[string]interface{}{"pageViewId": "pv-x", "dwellTime": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPatch, "/api/v1/analytics/pageview", map[string]interface{}{"pageViewId": "pv-x", "scrollDepth": 140})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckFraud_DryRun(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/v1/fraud/check", map[string]interface{}{
		"fingerprint":               "fp-1",
		"sessionId":                 "s-1",
		"eventType":                 "cta_click",
		"mouseMovementsBeforeClick": 2,
		"countryCode":               "KR",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(35), body["riskScore"])
	assert.Equal(t, "allow", body["action"])

	assert.Empty(t, ts.signals.updates)
	assert.Empty(t, ts.signals.blacklist)
}

func TestFraudResultsAndStats(t *testing.T) {
	ts := newTestServer(t)
	ts.decisions.On("GetDecision", mock.Anything, "c-1").Return(&models.FraudDecision{ClickID: "c-1", RiskScore: 55, Action: models.ActionWarn}, nil)
	ts.decisions.On("GetDecision", mock.Anything, "c-2").Return(nil, models.ErrNotFound)
	ts.sites.On("GetSiteBySlug", mock.Anything, "nope").Return(nil, models.ErrNotFound)
	ts.stats.On("FraudStats", mock.Anything, "", mock.Anything, mock.Anything).
		Return(&models.FraudStats{Summary: models.FraudSummary{TotalClicks: 8, FraudClicks: 2}}, nil)

	w := ts.do(http.MethodGet, "/api/v1/fraud/results/c-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "warn", decode(t, w)["action"])

	w = ts.do(http.MethodGet, "/api/v1/fraud/results/c-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/fraud/stats?period=week", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)["summary"].(map[string]interface{})
	assert.Equal(t, float64(25), summary["fraudRate"])
	assert.Equal(t, float64(800), summary["estimatedSavedCost"])

	w = ts.do(http.MethodGet, "/api/v1/fraud/stats?period=year", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/fraud/stats?site=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBlacklistEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/v1/blacklist/check", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/blacklist/check?fingerprint=fp-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["blacklisted"])

	w = ts.do(http.MethodPost, "/api/v1/blacklist", map[string]interface{}{
		"fingerprint": "fp-1", "ipAddress": "203.0.113.7", "reason": "call center fraud", "permanent": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, decode(t, w)["expiresAt"])

	w = ts.do(http.MethodGet, "/api/v1/blacklist/check?ip=203.0.113.7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["blacklisted"])

	w = ts.do(http.MethodPost, "/api/v1/blacklist", map[string]interface{}{"fingerprint": "fp-2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSiteEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.sites.On("CreateSite", mock.Anything, mock.Anything).Return(models.ErrDuplicate).Once()
	ts.sites.On("CreateSite", mock.Anything, mock.Anything).Return(nil).Once()
	ts.sites.On("DeleteSite", mock.Anything, "missing").Return(models.ErrNotFound)
	ts.sites.On("DeleteSite", mock.Anything, "site-1").Return(nil)
	ts.sites.On("ListSites", mock.Anything).Return([]*models.LandingSite{{ID: "site-1", Slug: "gangnam"}}, nil)

	w := ts.do(http.MethodPost, "/api/v1/admin/sites", map[string]string{"name": "Gangnam", "slug": "gangnam"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/admin/sites", map[string]string{"name": "Gangnam", "slug": "gangnam"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/admin/sites", map[string]string{"slug": "no-name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodDelete, "/api/v1/admin/sites/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodDelete, "/api/v1/admin/sites/site-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/admin/sites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sites"], 1)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("clickguard", map[string]Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := decode(t, w)["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
	assert.Equal(t, "connection refused", checks["redis"])
}
