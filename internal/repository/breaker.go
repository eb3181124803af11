// internal/repository/breaker.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
	"clickguard/internal/service"
)

var _ service.SignalStore = (*BreakerStore)(nil)

// BreakerSettings tunes the circuit breaker around signal reads
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings opens after 60% of at least 10 reads fail within a
// minute and probes again after 30 seconds
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "signal-store",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerStore fails signal reads fast while the database is unhealthy.
// Writes go straight through.
type BreakerStore struct {
	service.SignalStore
	cb      *gobreaker.CircuitBreaker[interface{}]
	name    string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewBreakerStore(next service.SignalStore, settings BreakerSettings, m *metrics.Metrics, logger *zap.Logger) *BreakerStore {
	m.SetBreakerState(settings.Name, stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			m.SetBreakerState(name, stateValue(to))
		},
	})

	return &BreakerStore{
		SignalStore: next,
		cb:          cb,
		name:        settings.Name,
		metrics:     m,
		logger:      logger,
	}
}

// State reports the breaker's current state
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s rejected read: %w", b.name, err)
		}
		return nil, err
	}
	return result, nil
}

func (b *BreakerStore) CountClickEvents(ctx context.Context, filter models.ClickFilter, since time.Time) (int, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.SignalStore.CountClickEvents(ctx, filter, since)
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (b *BreakerStore) FindRecentClickCoordinates(ctx context.Context, sessionID string, since time.Time) ([]models.Coordinate, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.SignalStore.FindRecentClickCoordinates(ctx, sessionID, since)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Coordinate), nil
}

func (b *BreakerStore) CountDistinctFingerprintsForIP(ctx context.Context, ip string, since time.Time) (int, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.SignalStore.CountDistinctFingerprintsForIP(ctx, ip, since)
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (b *BreakerStore) FindBlacklistByFingerprint(ctx context.Context, fingerprint string) (*models.BlacklistEntry, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.SignalStore.FindBlacklistByFingerprint(ctx, fingerprint)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.BlacklistEntry), nil
}

func (b *BreakerStore) FindBlacklistByIP(ctx context.Context, ip string) (*models.BlacklistEntry, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.SignalStore.FindBlacklistByIP(ctx, ip)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.BlacklistEntry), nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
