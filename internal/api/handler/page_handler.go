package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PageHandler serves the bootstrap context each protected surface loads
// first: who the caller is and which merchant its queries are pinned to.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

type pageContextResponse struct {
	PrincipalID string  `json:"principal_id"`
	Role        string  `json:"role"`
	Scope       string  `json:"scope"`
	MerchantID  *string `json:"merchant_id,omitempty"`
}

// Context returns the authorized context for the current surface.
//
// @Summary      Surface bootstrap context
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageContextResponse
// @Failure      401  {object}  map[string]string
// @Router       /admin/context [get]
func (h *PageHandler) Context(c echo.Context) error {
	authz, err := ctxAuthorized(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, pageContextResponse{
		PrincipalID: authz.PrincipalID,
		Role:        string(authz.Role),
		Scope:       string(authz.Scope.Kind),
		MerchantID:  authz.EffectiveMerchantID,
	})
}
