// Package signal models the cross-tab verification bridge: a same-origin
// broadcast channel that lets the tab which completed authentication tell
// every other open tab that a session now exists, without a server round
// trip. The handshake depends only on the Bus interface, so tests and
// degraded environments (private browsing, unsupported contexts) can swap
// the transport without touching the state machine.
package signal

import (
	"context"
	"time"
)

// ChannelName is the well-known identifier shared by every tab of the same
// origin.
const ChannelName = "channelpass.handshake"

// Action discriminates the messages travelling over the bridge.
type Action string

const (
	// ActionSessionVerified announces that a session was resolved elsewhere.
	ActionSessionVerified Action = "SESSION_VERIFIED"
	// ActionAcknowledged is published by a receiving tab; it exists for
	// observability, not correctness.
	ActionAcknowledged Action = "HANDSHAKE_ACKNOWLEDGED"
)

// Signal is the message shape shared by every transport.
type Signal struct {
	Action      Action    `json:"action"`
	Target      string    `json:"target,omitempty"`
	PrincipalID string    `json:"principal,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Handler receives signals published by other subscribers.
type Handler func(Signal)

// Bus is the abstract signal source/sink. Publish and Subscribe errors are
// advisory: an unavailable bus degrades to "no cross-tab propagation" and
// must never fail the handshake itself.
type Bus interface {
	Publish(ctx context.Context, s Signal) error

	// Subscribe registers a handler and returns a cancel function. The
	// handler never observes the subscriber's own publishes.
	Subscribe(ctx context.Context, h Handler) (func(), error)
}

// Verified builds the SESSION_VERIFIED announcement.
func Verified(target, principalID string, at time.Time) Signal {
	return Signal{
		Action:      ActionSessionVerified,
		Target:      target,
		PrincipalID: principalID,
		Timestamp:   at,
	}
}
