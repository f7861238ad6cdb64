package ports

import (
	"context"
	"time"

	"github.com/channelpass/platform/internal/core/domain"
)

// RedeemInput carries everything a redemption attempt knows about its caller.
type RedeemInput struct {
	TokenValue string
	// Redirect is the path the caller asked to land on. The resolver
	// intersects it with what the principal's scope permits.
	Redirect string
	RemoteIP string
}

// ResolvedSession is returned on successful redemption or staff login.
type ResolvedSession struct {
	Session   *domain.Session
	Principal *domain.Principal
	// Redirect is the final, scope-permitted landing path.
	Redirect string
	IssuedAt time.Time
}

// IssueLinkInput describes a magic link to mint.
type IssueLinkInput struct {
	Kind        domain.TokenKind
	PrincipalID string
	Redirect    string
	// IssuerMerchantID pins issuance to the issuer's tenant. Nil means a
	// platform-wide issuer; a merchant-scoped issuer may only mint links
	// for principals of its own merchant.
	IssuerMerchantID *string
}

// IssuedLink is the minted credential handed back to the issuing caller.
type IssuedLink struct {
	Value     string
	Kind      domain.TokenKind
	ExpiresAt time.Time
}

// AuthService defines the identity use-cases exposed over HTTP.
type AuthService interface {
	// Redeem exchanges a magic-link token for a session. Token consumption
	// is atomic and ordered before the success reply.
	Redeem(ctx context.Context, input RedeemInput) (*ResolvedSession, error)

	// IssueLink mints a single-use magic link for the given principal.
	IssueLink(ctx context.Context, input IssueLinkInput) (*IssuedLink, error)

	// StaffLogin authenticates a platform staff member by password and
	// issues a session through the same role→scope path as redemption.
	StaffLogin(ctx context.Context, email, password string) (*ResolvedSession, error)

	// Logout destroys exactly one session; the principal's other sessions
	// survive.
	Logout(ctx context.Context, sessionID string) error
}
