// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clickguard"

// Metrics holds the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	fraudChecks            *prometheus.CounterVec
	riskScore              prometheus.Histogram
	checkDuration          prometheus.Histogram
	ruleHits               *prometheus.CounterVec
	blacklistHits          prometheus.Counter
	blacklistAdds          *prometheus.CounterVec
	blacklistWriteFailures prometheus.Counter
	storeFailures          *prometheus.CounterVec
	breakerState           *prometheus.GaugeVec
	cacheLookups           *prometheus.CounterVec
	geoLookups             *prometheus.CounterVec
	trackedEvents          *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		fraudChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fraud_checks_total",
			Help:      "Fraud checks by resulting action",
		}, []string{"action"}),
		riskScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fraud_risk_score",
			Help:      "Final risk score of scored clicks",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		checkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fraud_check_duration_seconds",
			Help:      "Time spent scoring one click",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		ruleHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fraud_rule_hits_total",
			Help:      "Triggered fraud rules",
		}, []string{"rule"}),
		blacklistHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blacklist_hits_total",
			Help:      "Requests rejected by an active blacklist entry",
		}),
		blacklistAdds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blacklist_adds_total",
			Help:      "Blacklist upserts by origin",
		}, []string{"origin"}),
		blacklistWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blacklist_write_failures_total",
			Help:      "Failed blacklist upserts after a block decision",
		}),
		storeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Signal store failures by operation",
		}, []string{"operation"}),
		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache, layer and result",
		}, []string{"cache", "layer", "result"}),
		geoLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geoip_lookups_total",
			Help:      "GeoIP resolutions by source",
		}, []string{"source"}),
		trackedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracked_events_total",
			Help:      "Tracking events accepted by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveCheck(action string, score int, rules []string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fraudChecks.WithLabelValues(action).Inc()
	m.riskScore.Observe(float64(score))
	m.checkDuration.Observe(elapsed.Seconds())
	for _, rule := range rules {
		m.ruleHits.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) BlacklistHit() {
	if m == nil {
		return
	}
	m.blacklistHits.Inc()
}

func (m *Metrics) BlacklistAdded(origin string) {
	if m == nil {
		return
	}
	m.blacklistAdds.WithLabelValues(origin).Inc()
}

func (m *Metrics) BlacklistWriteFailed() {
	if m == nil {
		return
	}
	m.blacklistWriteFailures.Inc()
}

func (m *Metrics) StoreFailed(operation string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) CacheLookup(cache, layer, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, layer, result).Inc()
}

func (m *Metrics) GeoLookup(source string) {
	if m == nil {
		return
	}
	m.geoLookups.WithLabelValues(source).Inc()
}

func (m *Metrics) EventTracked(kind string) {
	if m == nil {
		return
	}
	m.trackedEvents.WithLabelValues(kind).Inc()
}
