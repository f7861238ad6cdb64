package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/channelpass/platform/internal/api/metrics"
	"github.com/channelpass/platform/internal/core/service"
	"github.com/channelpass/platform/internal/handshake"
)

const authorizedContextKey = "authorized"

// Guard enforces the authorization gate on a protected route group. The
// session must already be in context (Session middleware runs first); Guard
// passes it through the gate against the route's clearance set and injects
// the AuthorizedContext downstream handlers read their tenant filter from.
func Guard(gate *service.Gate, clearance service.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz, err := gate.Require(SessionFrom(c), clearance)
			if err != nil {
				reason := handshake.ReasonForError(err)
				metrics.GateDecisionsTotal.WithLabelValues(string(reason)).Inc()
				return denied(c, reason)
			}

			metrics.GateDecisionsTotal.WithLabelValues("allowed").Inc()
			c.Set(authorizedContextKey, authz)
			return next(c)
		}
	}
}

// AuthorizedFrom returns the gate's verdict for the current request, or nil
// when the route is not guarded.
func AuthorizedFrom(c echo.Context) *service.AuthorizedContext {
	authz, _ := c.Get(authorizedContextKey).(*service.AuthorizedContext)
	return authz
}

func denied(c echo.Context, reason handshake.FailureReason) error {
	if WantsJSON(c) {
		status := http.StatusUnauthorized
		if reason == handshake.ReasonAccessDenied {
			status = http.StatusForbidden
		}
		return c.JSON(status, map[string]interface{}{
			"success": false,
			"reason":  string(reason),
			"message": reason.Message(),
		})
	}
	return c.Redirect(http.StatusFound, "/login?reason="+string(reason))
}
