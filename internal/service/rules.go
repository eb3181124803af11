// internal/service/rules.go
package service

import (
	"time"

	"clickguard/internal/models"
)

// Rule names used in RuleHit and metrics labels
const (
	RuleFingerprintBurst  = "fingerprint_5m"
	RuleFingerprintHourly = "fingerprint_60m"
	RuleIPBurst           = "ip_10m"
	RuleLowDwell          = "low_dwell"
	RuleLowScroll         = "low_scroll"
	RuleLowMouse          = "low_mouse"
	RuleVPNProxy          = "vpn_proxy"
	RuleForeignAdClick    = "foreign_ad_click"
	RuleNightTime         = "night_time"
	RuleRepeatedCoords    = "repeated_coordinates"
	RuleBlacklisted       = "blacklisted"
)

// FrequencyRule fires when at least Threshold scored clicks fall inside Window
type FrequencyRule struct {
	Window    time.Duration
	Threshold int
	Score     int
}

// MinimumRule fires when a reported metric is below Threshold
type MinimumRule struct {
	Threshold float64
	Score     int
}

type CoordinateRule struct {
	Window    time.Duration
	Tolerance int
	Threshold int
	Score     int
}

// SharedIPRule halves scores of engaged visitors on busy IPs
type SharedIPRule struct {
	Window          time.Duration
	MinFingerprints int
	Factor          float64
	MinDwell        float64
	MinScroll       float64
	MinMouse        int
}

// RuleConfig holds every scoring constant. It is passed by value and never
// mutated after construction.
type RuleConfig struct {
	WarnThreshold  int
	BlockThreshold int
	MaxScore       int

	FingerprintBurst  FrequencyRule
	FingerprintHourly FrequencyRule
	IPBurst           FrequencyRule

	LowDwell  MinimumRule
	LowScroll MinimumRule
	LowMouse  MinimumRule

	VPNProxyScore       int
	HomeCountry         string
	ForeignAdClickScore int
	NightHours          []int
	NightScore          int

	Coordinates CoordinateRule
	SharedIP    SharedIPRule

	BlacklistTTL       time.Duration
	AutoBlacklistScore int
}

// DefaultRules returns the production rule set
func DefaultRules() RuleConfig {
	return RuleConfig{
		WarnThreshold:  50,
		BlockThreshold: 80,
		MaxScore:       100,

		FingerprintBurst:  FrequencyRule{Window: 5 * time.Minute, Threshold: 3, Score: 30},
		FingerprintHourly: FrequencyRule{Window: 60 * time.Minute, Threshold: 5, Score: 50},
		IPBurst:           FrequencyRule{Window: 10 * time.Minute, Threshold: 5, Score: 25},

		LowDwell:  MinimumRule{Threshold: 3, Score: 25},
		LowScroll: MinimumRule{Threshold: 10, Score: 20},
		LowMouse:  MinimumRule{Threshold: 5, Score: 35},

		VPNProxyScore:       30,
		HomeCountry:         "KR",
		ForeignAdClickScore: 25,
		NightHours:          []int{2, 3, 4, 5},
		NightScore:          15,

		Coordinates: CoordinateRule{Window: 10 * time.Minute, Tolerance: 5, Threshold: 3, Score: 40},
		SharedIP: SharedIPRule{
			Window:          24 * time.Hour,
			MinFingerprints: 3,
			Factor:          0.5,
			MinDwell:        10,
			MinScroll:       30,
			MinMouse:        10,
		},

		BlacklistTTL:       30 * 24 * time.Hour,
		AutoBlacklistScore: 100,
	}
}

// WithHomeCountry returns a copy using country as the home market
func (r RuleConfig) WithHomeCountry(country string) RuleConfig {
	r.HomeCountry = country
	return r
}

// Clamp bounds a summed score to [0, MaxScore]
func (r RuleConfig) Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > r.MaxScore:
		return r.MaxScore
	default:
		return score
	}
}

// Classify maps a score to its action
func (r RuleConfig) Classify(score int) (models.Action, bool) {
	switch {
	case score >= r.BlockThreshold:
		return models.ActionBlock, true
	case score >= r.WarnThreshold:
		return models.ActionWarn, false
	default:
		return models.ActionAllow, false
	}
}

// ShouldAutoBlacklist reports whether a final score bans the visitor
func (r RuleConfig) ShouldAutoBlacklist(score int) bool {
	return score >= r.AutoBlacklistScore
}

func (r RuleConfig) isNightHour(hour int) bool {
	for _, h := range r.NightHours {
		if h == hour {
			return true
		}
	}
	return false
}
