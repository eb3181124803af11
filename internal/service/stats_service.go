// internal/service/stats_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"clickguard/internal/models"
)

// fingerprintPrefixLen is how much of a fingerprint the dashboard shows
const fingerprintPrefixLen = 8

// StatsService builds the fraud dashboard summary
type StatsService struct {
	stats      StatsStore
	sites      SiteStore
	averageCPC int
	now        func() time.Time
}

func NewStatsService(stats StatsStore, sites SiteStore, averageCPC int) *StatsService {
	return &StatsService{
		stats:      stats,
		sites:      sites,
		averageCPC: averageCPC,
		now:        time.Now,
	}
}

// FraudStats summarizes click fraud for one site, or all sites when the
// slug is empty
func (s *StatsService) FraudStats(ctx context.Context, query models.FraudStatsQuery) (*models.FraudStats, error) {
	period := query.Period
	if period == "" {
		period = models.PeriodToday
	}

	var siteID string
	if query.SiteSlug != "" {
		site, err := s.sites.GetSiteBySlug(ctx, query.SiteSlug)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, ErrSiteNotFound
			}
			return nil, fmt.Errorf("failed to load site: %w", err)
		}
		siteID = site.ID
	}

	now := s.now()
	since := period.Since(now)

	stats, err := s.stats.FraudStats(ctx, siteID, since, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load fraud stats: %w", err)
	}

	stats.Period = period
	stats.Since = since
	stats.Summary.FraudRate = fraudRate(stats.Summary.FraudClicks, stats.Summary.TotalClicks)
	stats.Summary.EstimatedSavedCost = stats.Summary.FraudClicks * s.averageCPC

	for i := range stats.RecentFraudClicks {
		stats.RecentFraudClicks[i].Fingerprint = maskFingerprint(stats.RecentFraudClicks[i].Fingerprint)
	}

	if stats.FraudReasons == nil {
		stats.FraudReasons = []models.ReasonCount{}
	}
	if stats.FraudBySource == nil {
		stats.FraudBySource = []models.SourceCount{}
	}
	if stats.RecentFraudClicks == nil {
		stats.RecentFraudClicks = []models.RecentFraud{}
	}

	return stats, nil
}

// fraudRate is the fraud percentage rounded to one decimal
func fraudRate(fraud, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(fraud)/float64(total)*1000) / 10
}

func maskFingerprint(fp string) string {
	if len(fp) <= fingerprintPrefixLen {
		return fp
	}
	return fp[:fingerprintPrefixLen] + "..."
}
