package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
	"github.com/channelpass/platform/internal/signal"
)

const defaultSessionTTL = 24 * time.Hour

// AuthService is the server-side session resolver: it exchanges redeemed
// magic-link tokens (or staff credentials) for role-and-tenant-scoped
// sessions.
type AuthService struct {
	codec      *TokenCodec
	principals ports.PrincipalRepository
	merchants  ports.MerchantRepository
	sessions   ports.SessionStore
	bus        signal.Bus
	audit      ports.AuditSink
	limiter    ports.AttemptLimiter
	sessionTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// AuthServiceDeps carries the resolver's collaborators. Bus, audit and
// limiter are optional; a nil value degrades to "feature off" rather than a
// nil-pointer landmine.
type AuthServiceDeps struct {
	Codec      *TokenCodec
	Principals ports.PrincipalRepository
	Merchants  ports.MerchantRepository
	Sessions   ports.SessionStore
	Bus        signal.Bus
	Audit      ports.AuditSink
	Limiter    ports.AttemptLimiter
	SessionTTL time.Duration
	Log        zerolog.Logger
	Now        func() time.Time
}

func NewAuthService(deps AuthServiceDeps) *AuthService {
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = defaultSessionTTL
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &AuthService{
		codec:      deps.Codec,
		principals: deps.Principals,
		merchants:  deps.Merchants,
		sessions:   deps.Sessions,
		bus:        deps.Bus,
		audit:      deps.Audit,
		limiter:    deps.Limiter,
		sessionTTL: deps.SessionTTL,
		log:        deps.Log,
		now:        deps.Now,
	}
}

// Redeem exchanges a magic-link token for a session. The token is consumed
// atomically before anything else happens, so a crash later in the flow can
// only ever lose a link, never leave a redeemed-but-reusable one behind.
func (s *AuthService) Redeem(ctx context.Context, input ports.RedeemInput) (*ports.ResolvedSession, error) {
	if s.limiter != nil && input.RemoteIP != "" {
		throttled, err := s.limiter.TooManyFailures(ctx, input.RemoteIP)
		if err != nil {
			s.log.Warn().Err(err).Msg("attempt limiter unavailable; continuing open")
		} else if throttled {
			s.record(input.RemoteIP, "", "", domain.OutcomeThrottled)
			// Deliberately indistinguishable from a dead link so the
			// throttle is not an enumeration oracle.
			return nil, domain.ErrTokenUnknown
		}
	}

	token, err := s.codec.Redeem(ctx, input.TokenValue)
	if err != nil {
		s.countFailure(ctx, input.RemoteIP)
		s.record(input.RemoteIP, "", "", domain.OutcomeLinkInvalid)
		return nil, err
	}

	principal, err := s.principals.FindByID(ctx, token.PrincipalID)
	if err != nil {
		s.record(input.RemoteIP, token.PrincipalID, token.Kind, domain.OutcomeDenied)
		return nil, err
	}

	resolved, err := s.issueSession(ctx, principal, pickRedirect(input.Redirect, token.Redirect))
	if err != nil {
		s.record(input.RemoteIP, principal.ID, token.Kind, outcomeFor(err))
		return nil, err
	}

	s.announce(ctx, resolved)
	s.record(input.RemoteIP, principal.ID, token.Kind, domain.OutcomeVerified)
	return resolved, nil
}

// IssueLink mints a magic link after confirming the principal exists and the
// kind matches the principal's role tier.
func (s *AuthService) IssueLink(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
	if !domain.ValidTokenKind(input.Kind) {
		return nil, domain.ErrTokenMalformed
	}

	principal, err := s.principals.FindByID(ctx, input.PrincipalID)
	if err != nil {
		return nil, err
	}
	if kindForRole(principal.Role) != input.Kind {
		return nil, domain.ErrTokenMalformed
	}

	// A merchant-scoped issuer stays inside its own tenant; minting a link
	// for another merchant's principal would be impersonation across the
	// tenant boundary.
	if input.IssuerMerchantID != nil && principal.MerchantID != *input.IssuerMerchantID {
		return nil, domain.ErrInsufficientClearance
	}

	value, token, err := s.codec.Issue(ctx, input.Kind, principal.ID, input.Redirect)
	if err != nil {
		return nil, err
	}
	return &ports.IssuedLink{Value: value, Kind: token.Kind, ExpiresAt: token.ExpiresAt}, nil
}

// StaffLogin authenticates a platform staff member by password. Merchants
// and end-users have no password; they only ever arrive through the
// handshake.
func (s *AuthService) StaffLogin(ctx context.Context, email, password string) (*ports.ResolvedSession, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	principal, err := s.principals.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !principal.Role.IsPlatformStaff() {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	resolved, err := s.issueSession(ctx, principal, "")
	if err != nil {
		return nil, err
	}
	s.announce(ctx, resolved)
	return resolved, nil
}

// Logout destroys exactly one session. The principal's other concurrent
// sessions are untouched.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrNoSession
	}
	return s.sessions.Delete(ctx, sessionID)
}

// issueSession runs the role→scope mapping, checks the tenant is alive, and
// persists a fresh session. Existing sessions of the principal are never
// invalidated here — concurrent sessions are allowed.
func (s *AuthService) issueSession(ctx context.Context, principal *domain.Principal, requestedRedirect string) (*ports.ResolvedSession, error) {
	scope, err := principal.Scope()
	if err != nil {
		return nil, err
	}

	if scope.Kind == domain.ScopeMerchant {
		merchant, err := s.merchants.FindByID(ctx, scope.MerchantID)
		if err != nil {
			return nil, err
		}
		if merchant.Suspended {
			return nil, domain.ErrMerchantSuspended
		}
	}

	issuedAt := s.now().UTC()
	session := &domain.Session{
		ID:          uuid.NewString(),
		PrincipalID: principal.ID,
		Role:        principal.Role,
		Scope:       scope,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(s.sessionTTL),
		Version:     1,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &ports.ResolvedSession{
		Session:   session,
		Principal: principal,
		Redirect:  IntersectRedirect(principal.Role, requestedRedirect),
		IssuedAt:  issuedAt,
	}, nil
}

// announce broadcasts SESSION_VERIFIED so other open tabs stop waiting. The
// bus is advisory: a publish failure is logged, never surfaced.
func (s *AuthService) announce(ctx context.Context, resolved *ports.ResolvedSession) {
	if s.bus == nil {
		return
	}
	sig := signal.Verified(resolved.Redirect, resolved.Principal.ID, s.now().UTC())
	if err := s.bus.Publish(ctx, sig); err != nil {
		s.log.Warn().Err(err).Msg("verified signal not propagated")
	}
}

func (s *AuthService) countFailure(ctx context.Context, remoteIP string) {
	if s.limiter == nil || remoteIP == "" {
		return
	}
	if err := s.limiter.RecordFailure(ctx, remoteIP); err != nil {
		s.log.Warn().Err(err).Msg("attempt limiter record failed")
	}
}

func (s *AuthService) record(remoteIP, principalID string, kind domain.TokenKind, outcome domain.HandshakeOutcome) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(domain.HandshakeEvent{
		PrincipalID: principalID,
		TokenKind:   kind,
		Outcome:     outcome,
		RemoteIP:    remoteIP,
		Timestamp:   s.now().UTC(),
	})
}

// pickRedirect prefers the caller's requested path, falling back to the
// redirect baked into the link at issuance.
func pickRedirect(requested, issued string) string {
	if requested != "" {
		return requested
	}
	return issued
}

// kindForRole maps a role to the only link tier that may be issued for it.
func kindForRole(role domain.Role) domain.TokenKind {
	switch role {
	case domain.RoleSuperAdmin, domain.RolePlatformManager, domain.RolePlatformSupport:
		return domain.KindStaffLink
	case domain.RoleMerchantOwner:
		return domain.KindMerchantLink
	default:
		return domain.KindMemberLink
	}
}

func outcomeFor(err error) domain.HandshakeOutcome {
	switch {
	case errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrMerchantSuspended),
		errors.Is(err, domain.ErrMerchantNotFound):
		return domain.OutcomeDenied
	default:
		return domain.OutcomeError
	}
}
