// internal/models/tracking.go
package models

import "time"

type Session struct {
	ID          string `json:"id" db:"id"`
	Fingerprint string `json:"fingerprint" db:"fingerprint"`
	CookieID    string `json:"cookieId,omitempty" db:"cookie_id"`
	IPAddress   string `json:"ipAddress,omitempty" db:"ip_address"`

	IsVPN       bool   `json:"isVpn" db:"is_vpn"`
	IsProxy     bool   `json:"isProxy" db:"is_proxy"`
	IsHosting   bool   `json:"isHosting" db:"is_hosting"`
	Country     string `json:"country,omitempty" db:"country"`
	CountryCode string `json:"countryCode,omitempty" db:"country_code"`
	Region      string `json:"region,omitempty" db:"region"`
	City        string `json:"city,omitempty" db:"city"`
	ISP         string `json:"isp,omitempty" db:"isp"`

	RiskScore    int        `json:"riskScore" db:"risk_score"`
	IsSuspicious bool       `json:"isSuspicious" db:"is_suspicious"`
	IsBlocked    bool       `json:"isBlocked" db:"is_blocked"`
	BlockReason  string     `json:"blockReason,omitempty" db:"block_reason"`
	BlockedAt    *time.Time `json:"blockedAt,omitempty" db:"blocked_at"`

	VisitCount     int       `json:"visitCount" db:"visit_count"`
	TotalPageViews int       `json:"totalPageViews" db:"total_page_views"`
	TotalDwellTime float64   `json:"totalDwellTime" db:"total_dwell_time"`
	FirstVisit     time.Time `json:"firstVisit" db:"first_visit"`
	LastVisit      time.Time `json:"lastVisit" db:"last_visit"`

	DeviceType     string `json:"deviceType,omitempty" db:"device_type"`
	Browser        string `json:"browser,omitempty" db:"browser"`
	BrowserVersion string `json:"browserVersion,omitempty" db:"browser_version"`
	OS             string `json:"os,omitempty" db:"os"`
	OSVersion      string `json:"osVersion,omitempty" db:"os_version"`
	ScreenWidth    int    `json:"screenWidth,omitempty" db:"screen_width"`
	ScreenHeight   int    `json:"screenHeight,omitempty" db:"screen_height"`
	UserAgent      string `json:"userAgent,omitempty" db:"user_agent"`

	Referrer       string `json:"referrer,omitempty" db:"referrer"`
	ReferrerDomain string `json:"referrerDomain,omitempty" db:"referrer_domain"`
	UTMSource      string `json:"utmSource,omitempty" db:"utm_source"`
	UTMMedium      string `json:"utmMedium,omitempty" db:"utm_medium"`
	UTMCampaign    string `json:"utmCampaign,omitempty" db:"utm_campaign"`
	UTMContent     string `json:"utmContent,omitempty" db:"utm_content"`
	UTMTerm        string `json:"utmTerm,omitempty" db:"utm_term"`

	LandingSiteID string `json:"landingSiteId,omitempty" db:"landing_site_id"`
}

type ClickEvent struct {
	ID            string    `json:"id" db:"id"`
	SessionID     string    `json:"sessionId" db:"session_id"`
	LandingSiteID string    `json:"landingSiteId,omitempty" db:"landing_site_id"`
	EventType     EventType `json:"eventType" db:"event_type"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`

	TargetURL     string `json:"targetUrl,omitempty" db:"target_url"`
	TargetElement string `json:"targetElement,omitempty" db:"target_element"`
	TargetText    string `json:"targetText,omitempty" db:"target_text"`

	ClickX         *int `json:"clickX,omitempty" db:"click_x"`
	ClickY         *int `json:"clickY,omitempty" db:"click_y"`
	ViewportWidth  *int `json:"viewportWidth,omitempty" db:"viewport_width"`
	ViewportHeight *int `json:"viewportHeight,omitempty" db:"viewport_height"`

	AdSource   string `json:"adSource,omitempty" db:"ad_source"`
	AdCampaign string `json:"adCampaign,omitempty" db:"ad_campaign"`
	AdGroup    string `json:"adGroup,omitempty" db:"ad_group"`
	AdKeyword  string `json:"adKeyword,omitempty" db:"ad_keyword"`
	AdCreative string `json:"adCreative,omitempty" db:"ad_creative"`
	PageURL    string `json:"pageUrl,omitempty" db:"page_url"`

	DwellTimeBeforeClick      *float64 `json:"dwellTimeBeforeClick,omitempty" db:"dwell_time_before_click"`
	ScrollDepthBeforeClick    *float64 `json:"scrollDepthBeforeClick,omitempty" db:"scroll_depth_before_click"`
	MouseMovementsBeforeClick *int     `json:"mouseMovementsBeforeClick,omitempty" db:"mouse_movements_before_click"`

	IsFraud     bool   `json:"isFraud" db:"is_fraud"`
	FraudScore  int    `json:"fraudScore" db:"fraud_score"`
	FraudReason string `json:"fraudReason,omitempty" db:"fraud_reason"`
}

type PageView struct {
	ID             string     `json:"id" db:"id"`
	SessionID      string     `json:"sessionId" db:"session_id"`
	LandingSiteID  string     `json:"landingSiteId,omitempty" db:"landing_site_id"`
	Path           string     `json:"path" db:"path"`
	FullURL        string     `json:"fullUrl,omitempty" db:"full_url"`
	Title          string     `json:"title,omitempty" db:"title"`
	EnterTime      time.Time  `json:"enterTime" db:"enter_time"`
	ExitTime       *time.Time `json:"exitTime,omitempty" db:"exit_time"`
	DwellTime      *float64   `json:"dwellTime,omitempty" db:"dwell_time"`
	ScrollDepth    *float64   `json:"scrollDepth,omitempty" db:"scroll_depth"`
	ScrollEvents   *int       `json:"scrollEvents,omitempty" db:"scroll_events"`
	MouseMovements *int       `json:"mouseMovements,omitempty" db:"mouse_movements"`
	Clicks         *int       `json:"clicks,omitempty" db:"clicks"`
	ExitType       string     `json:"exitType,omitempty" db:"exit_type"`
}

type LandingSite struct {
	ID          string    `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Name        string    `json:"name" db:"name"`
	Domain      string    `json:"domain,omitempty" db:"domain"`
	Description string    `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	Sessions    int `json:"sessions"`
	PageViews   int `json:"pageViews"`
	ClickEvents int `json:"clickEvents"`
}

// ClickFilter selects click events by the visitor's session attributes.
// Empty fields do not filter.
type ClickFilter struct {
	Fingerprint string
	IPAddress   string
	SessionID   string
	EventTypes  []EventType
}

type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SessionRiskUpdate raises a session's risk state. Risk never decreases
// and the suspicious/blocked flags are never cleared.
type SessionRiskUpdate struct {
	SessionID   string
	RiskScore   int
	Suspicious  bool
	Blocked     bool
	BlockReason string
	At          time.Time
}

// GeoInfo is the location resolved for a visitor IP
type GeoInfo struct {
	IP          string `json:"ip"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Region      string `json:"region,omitempty"`
	City        string `json:"city,omitempty"`
	ISP         string `json:"isp,omitempty"`
	IsVPN       bool   `json:"isVpn"`
	IsProxy     bool   `json:"isProxy"`
	IsHosting   bool   `json:"isHosting"`
}

type SessionRequest struct {
	Fingerprint string `json:"fingerprint" binding:"required,max=128"`
	CookieID    string `json:"cookieId"`

	DeviceType     string `json:"deviceType"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browserVersion"`
	OS             string `json:"os"`
	OSVersion      string `json:"osVersion"`
	ScreenWidth    int    `json:"screenWidth" binding:"gte=0"`
	ScreenHeight   int    `json:"screenHeight" binding:"gte=0"`
	UserAgent      string `json:"userAgent"`

	Referrer       string `json:"referrer"`
	ReferrerDomain string `json:"referrerDomain"`
	UTMSource      string `json:"utmSource"`
	UTMMedium      string `json:"utmMedium"`
	UTMCampaign    string `json:"utmCampaign"`
	UTMContent     string `json:"utmContent"`
	UTMTerm        string `json:"utmTerm"`

	LandingSiteSlug string `json:"landingSiteSlug"`
}

type SessionResponse struct {
	SessionID  *string `json:"sessionId"`
	IsBlocked  bool    `json:"isBlocked"`
	IsNew      bool    `json:"isNew"`
	VisitCount int     `json:"visitCount"`
}

type PageViewRequest struct {
	SessionID       string `json:"sessionId" binding:"required"`
	LandingSiteSlug string `json:"landingSiteSlug"`
	Path            string `json:"path" binding:"required"`
	FullURL         string `json:"fullUrl"`
	Title           string `json:"title"`
}

type PageViewExitRequest struct {
	PageViewID     string   `json:"pageViewId" binding:"required"`
	DwellTime      *float64 `json:"dwellTime" binding:"omitempty,gte=0"`
	ScrollDepth    *float64 `json:"scrollDepth" binding:"omitempty,gte=0,lte=100"`
	ScrollEvents   *int     `json:"scrollEvents" binding:"omitempty,gte=0"`
	MouseMovements *int     `json:"mouseMovements" binding:"omitempty,gte=0"`
	Clicks         *int     `json:"clicks" binding:"omitempty,gte=0"`
	ExitType       string   `json:"exitType"`
}

type ClickRequest struct {
	SessionID       string    `json:"sessionId" binding:"required"`
	LandingSiteSlug string    `json:"landingSiteSlug"`
	EventType       EventType `json:"eventType" binding:"required,event_type"`

	TargetURL     string `json:"targetUrl"`
	TargetElement string `json:"targetElement"`
	TargetText    string `json:"targetText"`

	ClickX         *int `json:"clickX"`
	ClickY         *int `json:"clickY"`
	ViewportWidth  *int `json:"viewportWidth"`
	ViewportHeight *int `json:"viewportHeight"`

	AdSource   string `json:"adSource"`
	AdCampaign string `json:"adCampaign"`
	AdGroup    string `json:"adGroup"`
	AdKeyword  string `json:"adKeyword"`
	AdCreative string `json:"adCreative"`
	PageURL    string `json:"pageUrl"`

	DwellTimeBeforeClick      *float64 `json:"dwellTimeBeforeClick" binding:"omitempty,gte=0"`
	ScrollDepthBeforeClick    *float64 `json:"scrollDepthBeforeClick" binding:"omitempty,gte=0,lte=100"`
	MouseMovementsBeforeClick *int     `json:"mouseMovementsBeforeClick" binding:"omitempty,gte=0"`
}

type ClickResponse struct {
	ClickID   *string  `json:"clickId"`
	IsFraud   bool     `json:"isFraud"`
	RiskScore int      `json:"riskScore"`
	Action    Action   `json:"action"`
	Reasons   []string `json:"reasons"`

	// SessionBlocked marks the short reply for an already blocked session
	SessionBlocked bool `json:"-"`
}

type CreateSiteRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required,max=64"`
	Domain      string `json:"domain" binding:"omitempty,hostname"`
	Description string `json:"description"`
}
