package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/channelpass/platform/internal/api/middleware"
	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/service"
)

// ctxAuthorized extracts the gate verdict injected by the Guard middleware
// and performs a fast-fail check before any service call:
//   - the verdict must be present (presence proves the guard ran).
//   - a merchant-scoped verdict requires an effective merchant id; without it
//     the context is structurally valid but operationally unusable — reject
//     with 401 rather than run an unfiltered tenant query.
func ctxAuthorized(c echo.Context) (*service.AuthorizedContext, error) {
	authz := middleware.AuthorizedFrom(c)
	if authz == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization context")
	}

	if authz.Scope.Kind == domain.ScopeMerchant && authz.EffectiveMerchantID == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "context missing merchant identity")
	}

	return authz, nil
}
