package handshake

import (
	"errors"

	"github.com/channelpass/platform/internal/core/domain"
)

// FailureReason is the typed error surfaced to the IDLE state. Every reason
// maps to exactly one fixed user-facing message; the handshake never retries
// on its own and never redirects on failure.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonIdentityDenied FailureReason = "identity_denied"
	ReasonLinkInvalid    FailureReason = "link_invalid"
	ReasonAuthRequired   FailureReason = "auth_required"
	ReasonSessionExpired FailureReason = "session_expired"
	ReasonAccessDenied   FailureReason = "access_denied"
	ReasonNetworkError   FailureReason = "network_error"
)

var messages = map[FailureReason]string{
	ReasonIdentityDenied: "Your account is not allowed to sign in here. Contact your administrator.",
	ReasonLinkInvalid:    "This sign-in link is no longer valid. Request a new one.",
	ReasonAuthRequired:   "Please sign in to continue.",
	ReasonSessionExpired: "Your session has expired. Sign in again to continue.",
	ReasonAccessDenied:   "You do not have access to that page.",
	ReasonNetworkError:   "Something went wrong while signing you in. Try again.",
}

// Message returns the fixed display text for the reason, or the empty string
// for ReasonNone.
func (r FailureReason) Message() string {
	return messages[r]
}

// ReasonForError folds the server-side error taxonomy into the reason shown
// on the login surface. Dead-link errors, clearance errors and session
// errors each keep their own remedy; anything unrecognised collapses to
// network_error rather than leaking internals.
func ReasonForError(err error) FailureReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenAlreadyUsed),
		errors.Is(err, domain.ErrTokenUnknown):
		return ReasonLinkInvalid
	case errors.Is(err, domain.ErrInsufficientClearance):
		return ReasonAccessDenied
	case errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrPrincipalNotFound),
		errors.Is(err, domain.ErrMerchantSuspended):
		return ReasonIdentityDenied
	case errors.Is(err, domain.ErrSessionExpired):
		return ReasonSessionExpired
	case errors.Is(err, domain.ErrNoSession):
		return ReasonAuthRequired
	}
	return ReasonNetworkError
}
