package domain

import (
	"errors"
	"time"
)

// TokenKind selects the expiry tier of a magic link. Staff links are
// deliberately short-lived; member links issued to end-user mobile clients
// live longer because the link travels through a chat message.
type TokenKind string

const (
	KindStaffLink    TokenKind = "staff_link"
	KindMerchantLink TokenKind = "merchant_link"
	KindMemberLink   TokenKind = "member_link"
)

var ErrTokenMalformed = errors.New("token malformed")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenAlreadyUsed = errors.New("token already used")
var ErrTokenUnknown = errors.New("token unknown")

// ValidTokenKind reports whether k is one of the defined tiers.
func ValidTokenKind(k TokenKind) bool {
	switch k {
	case KindStaffLink, KindMerchantLink, KindMemberLink:
		return true
	}
	return false
}

// TokenTiers maps each token kind to its validity duration. The values are
// configuration, not policy baked into code; an unlisted kind has no valid
// duration and must not be issued.
type TokenTiers map[TokenKind]time.Duration

// DefaultTokenTiers returns the tier table used when configuration does not
// override it.
func DefaultTokenTiers() TokenTiers {
	return TokenTiers{
		KindStaffLink:    15 * time.Minute,
		KindMerchantLink: time.Hour,
		KindMemberLink:   24 * time.Hour,
	}
}

// TTL returns the validity duration for kind, or false when the kind has no
// configured tier.
func (t TokenTiers) TTL(kind TokenKind) (time.Duration, bool) {
	d, ok := t[kind]
	if !ok || d <= 0 {
		return 0, false
	}
	return d, true
}

// MagicLinkToken is a single-use, time-boxed credential. The opaque value
// handed to the user is never persisted; stores key records by its SHA-256
// digest.
type MagicLinkToken struct {
	Digest      string     `json:"-" bson:"_id"`
	Kind        TokenKind  `json:"kind" bson:"kind"`
	PrincipalID string     `json:"principal_id" bson:"principal_id"`
	Redirect    string     `json:"redirect" bson:"redirect"`
	IssuedAt    time.Time  `json:"issued_at" bson:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at" bson:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty" bson:"consumed_at,omitempty"`
}

// ExpiredAt reports whether the token is no longer redeemable at the given
// instant. The boundary is exclusive: a token redeemed at exactly ExpiresAt
// is expired.
func (t MagicLinkToken) ExpiredAt(at time.Time) bool {
	return !at.Before(t.ExpiresAt)
}

// Consumed reports whether the token has already been redeemed.
func (t MagicLinkToken) Consumed() bool {
	return t.ConsumedAt != nil
}
