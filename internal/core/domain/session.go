package domain

import (
	"errors"
	"time"
)

var ErrNoSession = errors.New("no session")
var ErrSessionExpired = errors.New("session expired")
var ErrInsufficientClearance = errors.New("insufficient clearance")

// Session is the resolved credential every protected page reads. It is
// created only by the session resolver and destroyed only by logout, absolute
// expiry, or forced rotation; nothing edits a session in place. A principal
// may hold several concurrent sessions.
type Session struct {
	ID          string      `json:"id"`
	PrincipalID string      `json:"principal_id"`
	Role        Role        `json:"role"`
	Scope       TenantScope `json:"scope"`
	IssuedAt    time.Time   `json:"issued_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Version     int         `json:"version"`
}

// Active reports whether the session is still usable at the given instant.
// The expiry boundary is exclusive, matching magic-link tokens.
func (s Session) Active(at time.Time) bool {
	return at.Before(s.ExpiresAt)
}

// EffectiveMerchantID returns the merchant id downstream queries must filter
// by: nil for platform-wide sessions, the merchant id otherwise.
func (s Session) EffectiveMerchantID() *string {
	if s.Scope.Kind == ScopeMerchant && s.Scope.MerchantID != "" {
		id := s.Scope.MerchantID
		return &id
	}
	return nil
}
