package service

import (
	"context"
	"sync"
	"time"

	"clickguard/internal/models"
)

type fakeClick struct {
	sessionID   string
	fingerprint string
	ip          string
	eventType   models.EventType
	at          time.Time
	x, y        *int
}

type fakeSession struct {
	fingerprint string
	ip          string
	firstVisit  time.Time
}

// fakeSignalStore is an in-memory SignalStore
type fakeSignalStore struct {
	mu          sync.Mutex
	clicks      []fakeClick
	sessions    []fakeSession
	blacklist   map[string]*models.BlacklistEntry
	riskUpdates []models.SessionRiskUpdate
	calls       map[string]int

	readErr   error
	upsertErr error
	riskErr   error
}

func newFakeSignalStore() *fakeSignalStore {
	return &fakeSignalStore{
		blacklist: make(map[string]*models.BlacklistEntry),
		calls:     make(map[string]int),
	}
}

func (s *fakeSignalStore) addClicks(n int, c fakeClick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.clicks = append(s.clicks, c)
	}
}

func (s *fakeSignalStore) addSession(fingerprint, ip string, firstVisit time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, fakeSession{fingerprint: fingerprint, ip: ip, firstVisit: firstVisit})
}

func (s *fakeSignalStore) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *fakeSignalStore) record(name string) {
	s.calls[name]++
}

func (s *fakeSignalStore) CountClickEvents(_ context.Context, filter models.ClickFilter, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CountClickEvents")
	if s.readErr != nil {
		return 0, s.readErr
	}

	n := 0
	for _, c := range s.clicks {
		if filter.Fingerprint != "" && c.fingerprint != filter.Fingerprint {
			continue
		}
		if filter.IPAddress != "" && c.ip != filter.IPAddress {
			continue
		}
		if filter.SessionID != "" && c.sessionID != filter.SessionID {
			continue
		}
		if len(filter.EventTypes) > 0 && !containsEventType(filter.EventTypes, c.eventType) {
			continue
		}
		if c.at.Before(since) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *fakeSignalStore) FindRecentClickCoordinates(_ context.Context, sessionID string, since time.Time) ([]models.Coordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("FindRecentClickCoordinates")
	if s.readErr != nil {
		return nil, s.readErr
	}

	var out []models.Coordinate
	for _, c := range s.clicks {
		if c.sessionID != sessionID || c.at.Before(since) || c.x == nil || c.y == nil {
			continue
		}
		out = append(out, models.Coordinate{X: *c.x, Y: *c.y})
	}
	return out, nil
}

func (s *fakeSignalStore) FindBlacklistByFingerprint(_ context.Context, fingerprint string) (*models.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("FindBlacklistByFingerprint")
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.blacklist[fingerprint], nil
}

func (s *fakeSignalStore) FindBlacklistByIP(_ context.Context, ip string) (*models.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("FindBlacklistByIP")
	if s.readErr != nil {
		return nil, s.readErr
	}
	for _, e := range s.blacklist {
		if e.IPAddress == ip {
			return e, nil
		}
	}
	return nil, nil
}

func (s *fakeSignalStore) CountDistinctFingerprintsForIP(_ context.Context, ip string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CountDistinctFingerprintsForIP")
	if s.readErr != nil {
		return 0, s.readErr
	}

	seen := make(map[string]bool)
	for _, sess := range s.sessions {
		if sess.ip == ip && !sess.firstVisit.Before(since) {
			seen[sess.fingerprint] = true
		}
	}
	return len(seen), nil
}

func (s *fakeSignalStore) UpsertBlacklist(_ context.Context, entry *models.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("UpsertBlacklist")
	if s.upsertErr != nil {
		return s.upsertErr
	}
	copied := *entry
	s.blacklist[entry.Fingerprint] = &copied
	return nil
}

func (s *fakeSignalStore) UpdateSessionRisk(_ context.Context, update models.SessionRiskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("UpdateSessionRisk")
	if s.riskErr != nil {
		return s.riskErr
	}
	s.riskUpdates = append(s.riskUpdates, update)
	return nil
}

func containsEventType(types []models.EventType, t models.EventType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
