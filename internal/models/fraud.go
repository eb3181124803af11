// internal/models/fraud.go
package models

import "time"

type EventType string
type Action string

const (
	EventAdClick       EventType = "ad_click"
	EventCTAClick      EventType = "cta_click"
	EventPhoneClick    EventType = "phone_click"
	EventInquirySubmit EventType = "inquiry_submit"
	EventExternalLink  EventType = "external_link"
	EventGeneralClick  EventType = "general_click"
	EventConversion    EventType = "conversion"

	ActionAllow Action = "allow"
	ActionWarn  Action = "warn"
	ActionBlock Action = "block"
)

var eventTypes = map[EventType]bool{
	EventAdClick:       true,
	EventCTAClick:      true,
	EventPhoneClick:    true,
	EventInquirySubmit: true,
	EventExternalLink:  true,
	EventGeneralClick:  true,
	EventConversion:    true,
}

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	return eventTypes[t]
}

// IsScored reports whether clicks of this type go through fraud scoring
func (t EventType) IsScored() bool {
	return t == EventAdClick || t == EventCTAClick
}

// ScoredEventTypes are the event types counted by the frequency rules
func ScoredEventTypes() []EventType {
	return []EventType{EventAdClick, EventCTAClick}
}

// FraudCheckContext is the input to one scoring decision. Pre-click metrics
// and coordinates are pointers: nil means the tracker did not report them.
type FraudCheckContext struct {
	Fingerprint   string    `json:"fingerprint" binding:"required"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	SessionID     string    `json:"sessionId" binding:"required"`
	LandingSiteID string    `json:"landingSiteId,omitempty"`
	EventType     EventType `json:"eventType" binding:"required,event_type"`
	AdSource      string    `json:"adSource,omitempty"`

	DwellTimeBeforeClick      *float64 `json:"dwellTimeBeforeClick,omitempty" binding:"omitempty,gte=0"`
	ScrollDepthBeforeClick    *float64 `json:"scrollDepthBeforeClick,omitempty" binding:"omitempty,gte=0,lte=100"`
	MouseMovementsBeforeClick *int     `json:"mouseMovementsBeforeClick,omitempty" binding:"omitempty,gte=0"`
	ClickX                    *int     `json:"clickX,omitempty"`
	ClickY                    *int     `json:"clickY,omitempty"`

	IsVPN       bool   `json:"isVpn,omitempty"`
	IsProxy     bool   `json:"isProxy,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// HasCoordinates reports whether both click coordinates were reported
func (c *FraudCheckContext) HasCoordinates() bool {
	return c.ClickX != nil && c.ClickY != nil
}

// RuleHit records one triggered rule
type RuleHit struct {
	Rule   string `json:"rule"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type FraudCheckResult struct {
	IsFraud   bool      `json:"isFraud"`
	RiskScore int       `json:"riskScore"`
	Reasons   []string  `json:"reasons"`
	Action    Action    `json:"action"`
	Rules     []RuleHit `json:"rules,omitempty"`

	// RawScore is the clamped score before shared-IP correction
	RawScore  int  `json:"rawScore"`
	Corrected bool `json:"sharedIpCorrected"`
}

// AllowResult is the unscored result used for unscored event types and store outages
func AllowResult() *FraudCheckResult {
	return &FraudCheckResult{
		Reasons: []string{},
		Action:  ActionAllow,
	}
}

// FraudDecision is the stored record of one click's fraud decision
type FraudDecision struct {
	ClickID       string    `json:"clickId" bson:"click_id"`
	SessionID     string    `json:"sessionId" bson:"session_id"`
	LandingSiteID string    `json:"landingSiteId,omitempty" bson:"landing_site_id,omitempty"`
	Fingerprint   string    `json:"fingerprint" bson:"fingerprint"`
	IPAddress     string    `json:"ipAddress,omitempty" bson:"ip_address,omitempty"`
	EventType     EventType `json:"eventType" bson:"event_type"`
	IsFraud       bool      `json:"isFraud" bson:"is_fraud"`
	RiskScore     int       `json:"riskScore" bson:"risk_score"`
	RawScore      int       `json:"rawScore" bson:"raw_score"`
	Action        Action    `json:"action" bson:"action"`
	Reasons       []string  `json:"reasons" bson:"reasons"`
	Rules         []RuleHit `json:"rules,omitempty" bson:"rules,omitempty"`
	Corrected     bool      `json:"sharedIpCorrected" bson:"shared_ip_corrected"`
	Blacklisted   bool      `json:"blacklisted" bson:"blacklisted"`
	Degraded      bool      `json:"degraded" bson:"degraded"`
	ProcessingMS  int64     `json:"processingMs" bson:"processing_ms"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}
