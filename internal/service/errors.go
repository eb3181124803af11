// internal/service/errors.go
package service

import "errors"

var (
	// ErrStoreUnavailable marks a scoring call that could not read the signal store.
	// It is returned together with an unscored allow result.
	ErrStoreUnavailable = errors.New("signal store unavailable")

	// ErrVisitorBlocked rejects a session start from a blacklisted visitor
	ErrVisitorBlocked = errors.New("visitor is blacklisted")

	ErrSessionNotFound  = errors.New("session not found")
	ErrPageViewNotFound = errors.New("page view not found")
	ErrSiteNotFound     = errors.New("site not found")
	ErrSlugTaken        = errors.New("slug already exists")
	ErrDecisionNotFound = errors.New("fraud decision not found")
)
