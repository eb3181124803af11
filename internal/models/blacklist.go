// internal/models/blacklist.go
package models

import (
	"encoding/json"
	"time"
)

type BlacklistEntry struct {
	ID          string          `json:"id" db:"id"`
	Fingerprint string          `json:"fingerprint" db:"fingerprint"`
	IPAddress   string          `json:"ipAddress,omitempty" db:"ip_address"`
	Reason      string          `json:"reason" db:"reason"`
	Evidence    json.RawMessage `json:"evidence,omitempty" db:"evidence"`
	ExpiresAt   *time.Time      `json:"expiresAt" db:"expires_at"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsActive reports whether the entry bans at time now.
// Permanent entries have no expiry.
func (e *BlacklistEntry) IsActive(now time.Time) bool {
	if e == nil {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// IsPermanent reports whether the entry never expires
func (e *BlacklistEntry) IsPermanent() bool {
	return e.ExpiresAt == nil
}

type BlacklistCheckRequest struct {
	Fingerprint string `form:"fingerprint"`
	IPAddress   string `form:"ip"`
}

type BlacklistAddRequest struct {
	Fingerprint string                 `json:"fingerprint" binding:"required"`
	IPAddress   string                 `json:"ipAddress" binding:"omitempty,ip"`
	Reason      string                 `json:"reason" binding:"required"`
	Evidence    map[string]interface{} `json:"evidence"`
	Permanent   bool                   `json:"permanent"`
}
