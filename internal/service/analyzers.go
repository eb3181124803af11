// internal/service/analyzers.go
package service

import (
	"fmt"
	"strings"
	"time"

	"clickguard/internal/models"
)

// clickCounts holds the frequency reads for one click
type clickCounts struct {
	fingerprintBurst  int
	fingerprintHourly int
	ipBurst           int
	hasIP             bool
}

// frequencyHits checks repeated scored clicks per fingerprint and per IP
func frequencyHits(rules RuleConfig, counts clickCounts) []models.RuleHit {
	var hits []models.RuleHit

	if counts.fingerprintBurst >= rules.FingerprintBurst.Threshold {
		hits = append(hits, models.RuleHit{
			Rule:   RuleFingerprintBurst,
			Score:  rules.FingerprintBurst.Score,
			Reason: fmt.Sprintf("same fingerprint clicked %d times within %s", counts.fingerprintBurst, minutes(rules.FingerprintBurst.Window)),
		})
	}

	if counts.fingerprintHourly >= rules.FingerprintHourly.Threshold {
		hits = append(hits, models.RuleHit{
			Rule:   RuleFingerprintHourly,
			Score:  rules.FingerprintHourly.Score,
			Reason: fmt.Sprintf("same fingerprint clicked %d times within %s", counts.fingerprintHourly, minutes(rules.FingerprintHourly.Window)),
		})
	}

	if counts.hasIP && counts.ipBurst >= rules.IPBurst.Threshold {
		hits = append(hits, models.RuleHit{
			Rule:   RuleIPBurst,
			Score:  rules.IPBurst.Score,
			Reason: fmt.Sprintf("same IP clicked %d times within %s", counts.ipBurst, minutes(rules.IPBurst.Window)),
		})
	}

	return hits
}

// behaviorHits checks pre-click engagement. Unreported metrics never score.
func behaviorHits(rules RuleConfig, fc *models.FraudCheckContext) []models.RuleHit {
	var hits []models.RuleHit

	if fc.DwellTimeBeforeClick != nil && *fc.DwellTimeBeforeClick < rules.LowDwell.Threshold {
		hits = append(hits, models.RuleHit{
			Rule:   RuleLowDwell,
			Score:  rules.LowDwell.Score,
			Reason: fmt.Sprintf("dwell time %gs before click (under %gs)", *fc.DwellTimeBeforeClick, rules.LowDwell.Threshold),
		})
	}

	if fc.ScrollDepthBeforeClick != nil && *fc.ScrollDepthBeforeClick < rules.LowScroll.Threshold {
		hits = append(hits, models.RuleHit{
			Rule:   RuleLowScroll,
			Score:  rules.LowScroll.Score,
			Reason: fmt.Sprintf("scroll depth %g%% before click (under %g%%)", *fc.ScrollDepthBeforeClick, rules.LowScroll.Threshold),
		})
	}

	if fc.MouseMovementsBeforeClick != nil && float64(*fc.MouseMovementsBeforeClick) < rules.LowMouse.Threshold {
		hits = append(hits, models.RuleHit{
			Rule:   RuleLowMouse,
			Score:  rules.LowMouse.Score,
			Reason: fmt.Sprintf("%d mouse movements before click (under %g, likely bot)", *fc.MouseMovementsBeforeClick, rules.LowMouse.Threshold),
		})
	}

	return hits
}

// geoTimeHits checks anonymizers, foreign ad clicks and night hours.
// now is server-local time.
func geoTimeHits(rules RuleConfig, fc *models.FraudCheckContext, now time.Time) []models.RuleHit {
	var hits []models.RuleHit

	if fc.IsVPN || fc.IsProxy {
		hits = append(hits, models.RuleHit{
			Rule:   RuleVPNProxy,
			Score:  rules.VPNProxyScore,
			Reason: "VPN or proxy detected",
		})
	}

	if fc.CountryCode != "" && !strings.EqualFold(fc.CountryCode, rules.HomeCountry) && fc.EventType == models.EventAdClick {
		hits = append(hits, models.RuleHit{
			Rule:   RuleForeignAdClick,
			Score:  rules.ForeignAdClickScore,
			Reason: fmt.Sprintf("ad click from foreign IP (%s)", fc.CountryCode),
		})
	}

	if hour := now.Hour(); rules.isNightHour(hour) {
		hits = append(hits, models.RuleHit{
			Rule:   RuleNightTime,
			Score:  rules.NightScore,
			Reason: fmt.Sprintf("click during night hours (%02d:00)", hour),
		})
	}

	return hits
}

// coordinateHits checks for scripted clicks replayed at the same position
func coordinateHits(rules RuleConfig, fc *models.FraudCheckContext, recent []models.Coordinate) []models.RuleHit {
	if !fc.HasCoordinates() {
		return nil
	}

	matches := countNearby(recent, *fc.ClickX, *fc.ClickY, rules.Coordinates.Tolerance)
	if matches < rules.Coordinates.Threshold {
		return nil
	}

	return []models.RuleHit{{
		Rule:   RuleRepeatedCoords,
		Score:  rules.Coordinates.Score,
		Reason: fmt.Sprintf("%d clicks at the same coordinates within %s (automation suspected)", matches, minutes(rules.Coordinates.Window)),
	}}
}

func countNearby(coords []models.Coordinate, x, y, tolerance int) int {
	n := 0
	for _, c := range coords {
		if abs(c.X-x) <= tolerance && abs(c.Y-y) <= tolerance {
			n++
		}
	}
	return n
}

// hasNormalBehavior requires all three engagement metrics to be reported and high enough
func hasNormalBehavior(rule SharedIPRule, fc *models.FraudCheckContext) bool {
	if fc.DwellTimeBeforeClick == nil || fc.ScrollDepthBeforeClick == nil || fc.MouseMovementsBeforeClick == nil {
		return false
	}
	return *fc.DwellTimeBeforeClick >= rule.MinDwell &&
		*fc.ScrollDepthBeforeClick >= rule.MinScroll &&
		*fc.MouseMovementsBeforeClick >= rule.MinMouse
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minutes(d time.Duration) string {
	return fmt.Sprintf("%d min", int(d.Minutes()))
}
