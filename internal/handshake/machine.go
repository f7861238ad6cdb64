// Package handshake implements the client-visible authentication protocol
// used by the dashboard and mini-app shells: a finite state machine driven
// by magic-link redemption, a supervised chat-bot popup, or a cross-tab
// verification signal. One Machine exists per tab; its state is discarded on
// navigation and rebuilt from the persisted session, never replayed.
package handshake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/channelpass/platform/internal/signal"
)

// State is the handshake lifecycle position of one tab.
type State string

const (
	StateIdle     State = "idle"
	StateSyncing  State = "syncing"
	StateVerified State = "verified"
	StateTimeout  State = "timeout"
)

// ErrHandshakeInFlight is returned when a new attempt is started while one
// is still syncing.
var ErrHandshakeInFlight = errors.New("handshake already in flight")

// redeemedCap bounds the once-per-token guard in a long-lived shell. Evicted
// values are safe to re-dispatch: the server consumed them on first
// redemption, so a replay just fails as already used.
const redeemedCap = 128

// Result is what a completed handshake hands to the navigation layer.
type Result struct {
	PrincipalID string
	DisplayName string
	Redirect    string
}

// Redeemer is the machine's view of the server-side session resolver; the
// production implementation is an HTTP call to /auth/magic.
type Redeemer interface {
	Redeem(ctx context.Context, tokenValue, redirect string) (*Result, error)
}

// Clock abstracts the timer surface so races between the popup poll, the
// ceiling timer and a cross-tab signal can be replayed deterministically in
// tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	// Tick returns a ticking channel and its stop function.
	Tick(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Config tunes one machine. Zero durations fall back to the defaults except
// NavigationDelay, where zero means navigate immediately (the delay is a UX
// decision, not a protocol requirement).
type Config struct {
	BotURL          string
	PopupCeiling    time.Duration
	PollInterval    time.Duration
	NavigationDelay time.Duration
	Clock           Clock
}

func (c Config) withDefaults() Config {
	if c.PopupCeiling <= 0 {
		c.PopupCeiling = DefaultPopupCeiling
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Clock == nil {
		c.Clock = realClock{}
	}
	return c
}

// attempt is the cancellation token threaded through every timer and poll
// callback of one SYNCING episode. Resolution closes done exactly once;
// every late callback compares pointers before acting, so at most one of
// {verified, timeout, abandoned, failure} ever transitions the machine.
type attempt struct {
	done chan struct{}
}

// Machine is the per-tab handshake state machine.
type Machine struct {
	redeemer Redeemer
	bus      signal.Bus
	opener   Opener
	navigate func(target string)
	cfg      Config
	log      zerolog.Logger

	mu          sync.Mutex
	state       State
	reason      FailureReason
	result      *Result
	attempt     *attempt
	redeemed    map[string]struct{}
	unsubscribe func()
}

// NewMachine wires a machine. navigate may be nil when the embedding shell
// handles navigation itself by polling Status.
func NewMachine(redeemer Redeemer, bus signal.Bus, opener Opener, navigate func(string), cfg Config, log zerolog.Logger) *Machine {
	return &Machine{
		redeemer: redeemer,
		bus:      bus,
		opener:   opener,
		navigate: navigate,
		cfg:      cfg.withDefaults(),
		log:      log,
		state:    StateIdle,
		redeemed: make(map[string]struct{}),
	}
}

// Start subscribes the machine to the cross-tab channel. An unavailable bus
// is logged and tolerated: the handshake still succeeds via direct
// redemption in this tab.
func (m *Machine) Start(ctx context.Context) {
	cancel, err := m.bus.Subscribe(ctx, m.onSignal)
	if err != nil {
		m.log.Warn().Err(err).Msg("cross-tab channel unavailable; continuing without propagation")
		return
	}
	m.mu.Lock()
	m.unsubscribe = cancel
	m.mu.Unlock()
}

// Stop tears down the bus subscription. Pending attempts resolve through
// their own cancellation tokens.
func (m *Machine) Stop() {
	m.mu.Lock()
	cancel := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Status returns the current state and, when idle after a failure, the
// typed reason.
func (m *Machine) Status() (State, FailureReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.reason
}

// Result returns the completed handshake outcome, or nil before VERIFIED.
func (m *Machine) Result() *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// RedeemLink dispatches a magic-link redemption. At most one redemption is
// ever dispatched per token value, no matter how often the triggering effect
// re-runs; repeat calls with a known value are no-ops.
func (m *Machine) RedeemLink(ctx context.Context, tokenValue, redirect string) error {
	m.mu.Lock()
	if _, dup := m.redeemed[tokenValue]; dup {
		m.mu.Unlock()
		return nil
	}
	if m.state == StateSyncing {
		m.mu.Unlock()
		return ErrHandshakeInFlight
	}
	if m.state == StateVerified {
		m.mu.Unlock()
		return nil
	}
	if len(m.redeemed) >= redeemedCap {
		m.redeemed = make(map[string]struct{})
	}
	m.redeemed[tokenValue] = struct{}{}
	a := m.beginAttemptLocked()
	m.mu.Unlock()

	res, err := m.redeemer.Redeem(ctx, tokenValue, redirect)
	if err != nil {
		m.resolveFailure(a, ReasonForError(err))
		return err
	}
	m.resolveVerified(ctx, a, res, true)
	return nil
}

// OpenPopup starts the chat-bot popup flow. The popup geometry and the open
// call both happen synchronously inside this call stack — before the
// supervision goroutine or any other suspension — so the shell still
// attributes the open to the user's gesture.
func (m *Machine) OpenPopup(ctx context.Context, redirect string) error {
	m.mu.Lock()
	if m.state == StateSyncing {
		m.mu.Unlock()
		return ErrHandshakeInFlight
	}
	if m.state == StateVerified {
		m.mu.Unlock()
		return nil
	}

	screenW, screenH := m.opener.ScreenSize()
	geom := CenteredGeometry(screenW, screenH)
	win, err := m.opener.Open(DeepLink(m.cfg.BotURL, redirect), geom)
	if err != nil {
		m.state = StateIdle
		m.mu.Unlock()
		return ErrPopupBlocked
	}

	a := m.beginAttemptLocked()
	m.mu.Unlock()

	go m.supervise(ctx, a, win)
	return nil
}

func (m *Machine) beginAttemptLocked() *attempt {
	a := &attempt{done: make(chan struct{})}
	m.attempt = a
	m.state = StateSyncing
	m.reason = ReasonNone
	return a
}

// supervise watches one popup until exactly one of four outcomes wins: the
// attempt resolves elsewhere (verified signal or context teardown), the
// ceiling fires, or a poll observes the window closed. The losers' timers
// are released on return.
func (m *Machine) supervise(ctx context.Context, a *attempt, win Window) {
	poll, stopPoll := m.cfg.Clock.Tick(m.cfg.PollInterval)
	defer stopPoll()
	ceiling := m.cfg.Clock.After(m.cfg.PopupCeiling)

	for {
		select {
		case <-ctx.Done():
			m.resolveAbandoned(a)
			win.Close()
			return
		case <-a.done:
			win.Close()
			return
		case <-ceiling:
			if m.resolveTimeout(a) {
				win.Close()
			}
			return
		case <-poll:
			if win.Closed() {
				// User dismissed the popup: abandonment, not an error.
				m.resolveAbandoned(a)
				return
			}
		}
	}
}

// onSignal handles SESSION_VERIFIED announcements from other tabs. The
// receiving tab acknowledges for observability and clears any pending
// timeout by resolving the live attempt.
func (m *Machine) onSignal(s signal.Signal) {
	if s.Action != signal.ActionSessionVerified {
		return
	}

	m.mu.Lock()
	if m.state == StateVerified || m.state == StateTimeout {
		m.mu.Unlock()
		return
	}
	a := m.attempt
	m.attempt = nil
	if a != nil {
		close(a.done)
	}
	m.state = StateVerified
	m.reason = ReasonNone
	m.result = &Result{PrincipalID: s.PrincipalID, Redirect: s.Target}
	m.mu.Unlock()

	if err := m.bus.Publish(context.Background(), signal.Signal{
		Action:      signal.ActionAcknowledged,
		PrincipalID: s.PrincipalID,
		Timestamp:   m.cfg.Clock.Now(),
	}); err != nil {
		m.log.Debug().Err(err).Msg("handshake acknowledgement not delivered")
	}

	m.scheduleNavigation(s.Target)
}

func (m *Machine) resolveVerified(ctx context.Context, a *attempt, res *Result, announce bool) {
	m.mu.Lock()
	if m.attempt != a {
		m.mu.Unlock()
		return
	}
	m.attempt = nil
	close(a.done)
	m.state = StateVerified
	m.reason = ReasonNone
	m.result = res
	m.mu.Unlock()

	if announce {
		if err := m.bus.Publish(ctx, signal.Verified(res.Redirect, res.PrincipalID, m.cfg.Clock.Now())); err != nil {
			m.log.Warn().Err(err).Msg("verified signal not propagated to other tabs")
		}
	}

	m.scheduleNavigation(res.Redirect)
}

func (m *Machine) resolveTimeout(a *attempt) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempt != a {
		return false
	}
	m.attempt = nil
	close(a.done)
	m.state = StateTimeout
	m.reason = ReasonNone
	return true
}

func (m *Machine) resolveAbandoned(a *attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempt != a {
		return
	}
	m.attempt = nil
	close(a.done)
	m.state = StateIdle
	m.reason = ReasonNone
}

func (m *Machine) resolveFailure(a *attempt, reason FailureReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempt != a {
		return
	}
	m.attempt = nil
	close(a.done)
	m.state = StateIdle
	m.reason = reason
}

// scheduleNavigation applies the fixed human-perceptible pause before
// navigating to the resolved target. A zero delay navigates inline, which is
// what tests use.
func (m *Machine) scheduleNavigation(target string) {
	if m.navigate == nil {
		return
	}
	if m.cfg.NavigationDelay <= 0 {
		m.navigate(target)
		return
	}
	after := m.cfg.Clock.After(m.cfg.NavigationDelay)
	go func() {
		<-after
		m.navigate(target)
	}()
}
