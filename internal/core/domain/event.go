package domain

import "time"

// HandshakeOutcome labels the terminal result of a redemption attempt.
type HandshakeOutcome string

const (
	OutcomeVerified    HandshakeOutcome = "verified"
	OutcomeLinkInvalid HandshakeOutcome = "link_invalid"
	OutcomeDenied      HandshakeOutcome = "identity_denied"
	OutcomeThrottled   HandshakeOutcome = "throttled"
	OutcomeError       HandshakeOutcome = "error"
)

// HandshakeEvent is the audit record written after every redemption attempt.
// Recording is asynchronous and best-effort; it never blocks or fails the
// handshake itself.
type HandshakeEvent struct {
	PrincipalID string           `json:"principal_id,omitempty"`
	TokenKind   TokenKind        `json:"token_kind,omitempty"`
	Outcome     HandshakeOutcome `json:"outcome"`
	RemoteIP    string           `json:"remote_ip,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}
