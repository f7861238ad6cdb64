package handshake

import (
	"errors"
	"time"
)

// ErrPopupBlocked is returned when the shell refuses to open the detached
// authentication window.
var ErrPopupBlocked = errors.New("popup blocked")

const (
	popupWidth  = 480
	popupHeight = 640

	// DefaultPopupCeiling bounds how long a tab may sit in SYNCING waiting
	// for the external chat-bot flow; long enough for a human to finish,
	// finite so the tab is never stuck.
	DefaultPopupCeiling = 60 * time.Second
	// DefaultPollInterval is how often the orchestrator checks whether the
	// popup was closed.
	DefaultPollInterval = 500 * time.Millisecond
)

// Geometry positions the popup window.
type Geometry struct {
	Width, Height int
	Left, Top     int
}

// Window is an open popup as seen by the orchestrator.
type Window interface {
	// Closed reports whether the user has dismissed the window.
	Closed() bool
	Close()
}

// Opener abstracts the shell's window API. Open must succeed or fail
// synchronously; the orchestrator guarantees it is invoked in the same call
// stack as the user gesture that started the handshake, before any
// suspension point, so shell popup-blocker heuristics still see the gesture.
type Opener interface {
	// ScreenSize returns the available screen dimensions used to centre the
	// popup. It must be cheap and non-blocking.
	ScreenSize() (width, height int)

	Open(url string, geom Geometry) (Window, error)
}

// CenteredGeometry computes the fixed-size, screen-centred popup placement.
// Pure and synchronous by design: it is evaluated inside the click's call
// stack (see Opener).
func CenteredGeometry(screenW, screenH int) Geometry {
	g := Geometry{Width: popupWidth, Height: popupHeight}
	if screenW > g.Width {
		g.Left = (screenW - g.Width) / 2
	}
	if screenH > g.Height {
		g.Top = (screenH - g.Height) / 2
	}
	return g
}
