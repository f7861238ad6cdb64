package service

import (
	"time"

	"github.com/channelpass/platform/internal/core/domain"
)

// RoleSet is the clearance a route demands.
type RoleSet map[domain.Role]struct{}

// NewRoleSet builds a clearance set.
func NewRoleSet(roles ...domain.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s RoleSet) Contains(r domain.Role) bool {
	_, ok := s[r]
	return ok
}

// AuthorizedContext is what a page render receives once the gate has let the
// request through: the resolved scope plus the merchant id every downstream
// query must filter by (nil for platform-wide sessions).
type AuthorizedContext struct {
	PrincipalID         string
	Role                domain.Role
	Scope               domain.TenantScope
	EffectiveMerchantID *string
}

// Gate is the authorization checkpoint in front of every protected route.
// It only ever reads sessions; creation and destruction live in the
// resolver and logout paths.
type Gate struct {
	now func() time.Time
}

// NewGate builds a gate; now defaults to time.Now.
func NewGate(now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{now: now}
}

// Require admits the session when it is live and its role is inside the
// clearance set. The gate is fail-closed: a missing session is
// domain.ErrNoSession, a dead one domain.ErrSessionExpired, and every other
// ambiguity — unknown role, malformed scope, role/scope mismatch, role not
// cleared — is domain.ErrInsufficientClearance, never a default permit.
func (g *Gate) Require(session *domain.Session, clearance RoleSet) (*AuthorizedContext, error) {
	if session == nil || session.ID == "" {
		return nil, domain.ErrNoSession
	}
	if !session.Active(g.now()) {
		return nil, domain.ErrSessionExpired
	}

	role, err := domain.ParseRole(string(session.Role))
	if err != nil {
		return nil, domain.ErrInsufficientClearance
	}
	if !session.Scope.Valid() {
		return nil, domain.ErrInsufficientClearance
	}

	// The stored scope must be the one the role implies; a global session
	// carrying a merchant id (or the reverse) is treated as tampering.
	expected, err := domain.RoleScope(role, session.Scope.MerchantID)
	if err != nil || expected != session.Scope {
		return nil, domain.ErrInsufficientClearance
	}

	if !clearance.Contains(role) {
		return nil, domain.ErrInsufficientClearance
	}

	return &AuthorizedContext{
		PrincipalID:         session.PrincipalID,
		Role:                role,
		Scope:               session.Scope,
		EffectiveMerchantID: session.EffectiveMerchantID(),
	}, nil
}
