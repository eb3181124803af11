// internal/models/stats.go
package models

import "time"

type StatsPeriod string

const (
	PeriodToday StatsPeriod = "today"
	PeriodWeek  StatsPeriod = "week"
	PeriodMonth StatsPeriod = "month"
)

// Since returns the start of the period ending at now.
// Unknown periods fall back to today.
func (p StatsPeriod) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}
}

type FraudStatsQuery struct {
	SiteSlug string      `form:"site"`
	Period   StatsPeriod `form:"period" binding:"omitempty,oneof=today week month"`
}

type FraudStats struct {
	Summary           FraudSummary  `json:"summary"`
	FraudReasons      []ReasonCount `json:"fraudReasons"`
	FraudBySource     []SourceCount `json:"fraudBySource"`
	RecentFraudClicks []RecentFraud `json:"recentFraudClicks"`
	Period            StatsPeriod   `json:"period"`
	Since             time.Time     `json:"since"`
}

type FraudSummary struct {
	TotalClicks        int     `json:"totalClicks"`
	FraudClicks        int     `json:"fraudClicks"`
	SuspiciousClicks   int     `json:"suspiciousClicks"`
	FraudRate          float64 `json:"fraudRate"`
	BlockedSessions    int     `json:"blockedSessions"`
	BlacklistCount     int     `json:"blacklistCount"`
	EstimatedSavedCost int     `json:"estimatedSavedCost"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type RecentFraud struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	EventType   EventType `json:"eventType"`
	FraudScore  int       `json:"fraudScore"`
	FraudReason string    `json:"fraudReason,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	DeviceType  string    `json:"deviceType,omitempty"`
	Browser     string    `json:"browser,omitempty"`
	City        string    `json:"city,omitempty"`
}
