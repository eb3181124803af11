// internal/mocks/stores.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"clickguard/internal/models"
)

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) FindRecentSession(ctx context.Context, fingerprint string, since time.Time) (*models.Session, error) {
	args := m.Called(ctx, fingerprint, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) ResumeSession(ctx context.Context, id, ip string, at time.Time) (*models.Session, error) {
	args := m.Called(ctx, id, ip, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) IncrementPageViews(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSessionStore) AddDwellTime(ctx context.Context, id string, seconds float64) error {
	args := m.Called(ctx, id, seconds)
	return args.Error(0)
}

type MockSiteStore struct {
	mock.Mock
}

func (m *MockSiteStore) ListSites(ctx context.Context) ([]*models.LandingSite, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LandingSite), args.Error(1)
}

func (m *MockSiteStore) GetSiteBySlug(ctx context.Context, slug string) (*models.LandingSite, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LandingSite), args.Error(1)
}

func (m *MockSiteStore) CreateSite(ctx context.Context, site *models.LandingSite) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockSiteStore) DeleteSite(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPageViewStore struct {
	mock.Mock
}

func (m *MockPageViewStore) CreatePageView(ctx context.Context, pv *models.PageView) error {
	args := m.Called(ctx, pv)
	return args.Error(0)
}

func (m *MockPageViewStore) RecordExit(ctx context.Context, req *models.PageViewExitRequest, at time.Time) (string, error) {
	args := m.Called(ctx, req, at)
	return args.String(0), args.Error(1)
}

type MockClickStore struct {
	mock.Mock
}

func (m *MockClickStore) CreateClickEvent(ctx context.Context, click *models.ClickEvent) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

type MockStatsStore struct {
	mock.Mock
}

func (m *MockStatsStore) FraudStats(ctx context.Context, siteID string, since, now time.Time) (*models.FraudStats, error) {
	args := m.Called(ctx, siteID, since, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FraudStats), args.Error(1)
}

type MockDecisionLog struct {
	mock.Mock
}

func (m *MockDecisionLog) SaveDecision(ctx context.Context, decision *models.FraudDecision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func (m *MockDecisionLog) GetDecision(ctx context.Context, clickID string) (*models.FraudDecision, error) {
	args := m.Called(ctx, clickID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FraudDecision), args.Error(1)
}

type MockGeoLocator struct {
	mock.Mock
}

func (m *MockGeoLocator) Lookup(ctx context.Context, ip string) (*models.GeoInfo, error) {
	args := m.Called(ctx, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeoInfo), args.Error(1)
}
