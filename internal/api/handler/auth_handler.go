package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/channelpass/platform/internal/api/metrics"
	"github.com/channelpass/platform/internal/api/middleware"
	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
	"github.com/channelpass/platform/internal/handshake"
)

type AuthHandler struct {
	auth    ports.AuthService
	cookies *middleware.CookieCodec
	botURL  string
	log     zerolog.Logger
}

func NewAuthHandler(auth ports.AuthService, cookies *middleware.CookieCodec, botURL string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, botURL: botURL, log: log}
}

type issueLinkRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=staff_link merchant_link member_link"`
	PrincipalID string `json:"principal_id" validate:"required"`
	Redirect    string `json:"redirect,omitempty"`
}

type issueLinkResponse struct {
	Value     string    `json:"value"`
	Kind      string    `json:"kind"`
	DeepLink  string    `json:"deep_link,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type staffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type principalView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type sessionResponse struct {
	Success   bool          `json:"success"`
	Principal principalView `json:"principal"`
	Redirect  string        `json:"redirect,omitempty"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Redeem exchanges a magic-link token for a session.
//
// Browsers navigate here from the link itself, so success answers with the
// session cookie plus a redirect to the resolved landing path, and failure
// redirects to the login surface carrying only a reason code. XHR callers
// get the same decisions as JSON envelopes.
//
// @Summary      Redeem a magic link
// @Tags         auth
// @Produce      json
// @Param        token     query     string  true   "Magic-link token value"
// @Param        redirect  query     string  false  "Requested landing path"
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  failureResponse
// @Failure      403  {object}  failureResponse
// @Router       /auth/magic [get]
func (h *AuthHandler) Redeem(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.RedemptionDuration)
	defer timer.ObserveDuration()

	resolved, err := h.auth.Redeem(c.Request().Context(), ports.RedeemInput{
		TokenValue: c.QueryParam("token"),
		Redirect:   c.QueryParam("redirect"),
		RemoteIP:   c.RealIP(),
	})
	if err != nil {
		reason := handshake.ReasonForError(err)
		metrics.RedemptionsTotal.WithLabelValues(string(reason)).Inc()
		return h.refuse(c, reason)
	}

	metrics.RedemptionsTotal.WithLabelValues("verified").Inc()
	metrics.SessionsIssuedTotal.WithLabelValues(string(resolved.Principal.Role)).Inc()

	cookie, err := h.cookies.Issue(resolved.Session.ID, resolved.Session.ExpiresAt)
	if err != nil {
		h.log.Error().Err(err).Msg("session cookie issue failed")
		return h.refuse(c, handshake.ReasonNetworkError)
	}
	c.SetCookie(cookie)

	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusOK, sessionResponse{
			Success:   true,
			Principal: viewOf(resolved.Principal),
			Redirect:  resolved.Redirect,
		})
	}
	return c.Redirect(http.StatusFound, resolved.Redirect)
}

// IssueLink mints a single-use magic link. The route is gate-protected;
// merchant owners may only mint member links, while platform staff mint any
// kind.
//
// @Summary      Issue a magic link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      issueLinkRequest  true  "Link details"
// @Success      201   {object}  issueLinkResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  failureResponse
// @Router       /auth/links [post]
func (h *AuthHandler) IssueLink(c echo.Context) error {
	var req issueLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	authz := middleware.AuthorizedFrom(c)
	if authz == nil {
		return h.refuse(c, handshake.ReasonAuthRequired)
	}

	input := ports.IssueLinkInput{
		Kind:        domain.TokenKind(req.Kind),
		PrincipalID: req.PrincipalID,
		Redirect:    req.Redirect,
	}
	if !authz.Role.IsPlatformStaff() {
		if req.Kind != string(domain.KindMemberLink) {
			return h.refuse(c, handshake.ReasonAccessDenied)
		}
		// Merchant issuers are pinned to their own tenant; the resolver
		// refuses a target principal outside it.
		if authz.EffectiveMerchantID == nil {
			return h.refuse(c, handshake.ReasonAccessDenied)
		}
		input.IssuerMerchantID = authz.EffectiveMerchantID
	}

	link, err := h.auth.IssueLink(c.Request().Context(), input)
	if err != nil {
		return err
	}

	metrics.LinksIssuedTotal.WithLabelValues(string(link.Kind)).Inc()

	// Member links travel through the chat bot; the deep link carries the
	// intended landing path so the bot flow can hand it back untouched.
	var deepLink string
	if link.Kind == domain.KindMemberLink && req.Redirect != "" {
		deepLink = handshake.DeepLink(h.botURL, req.Redirect)
	}

	return c.JSON(http.StatusCreated, issueLinkResponse{
		Value:     link.Value,
		Kind:      string(link.Kind),
		DeepLink:  deepLink,
		ExpiresAt: link.ExpiresAt,
	})
}

// StaffLogin authenticates a platform staff member by email and password.
//
// @Summary      Staff password login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      staffLoginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  failureResponse
// @Router       /auth/staff/login [post]
func (h *AuthHandler) StaffLogin(c echo.Context) error {
	var req staffLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resolved, err := h.auth.StaffLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, failureResponse{
				Reason:  string(handshake.ReasonIdentityDenied),
				Message: "Invalid email or password.",
			})
		}
		return err
	}

	metrics.SessionsIssuedTotal.WithLabelValues(string(resolved.Principal.Role)).Inc()

	cookie, err := h.cookies.Issue(resolved.Session.ID, resolved.Session.ExpiresAt)
	if err != nil {
		h.log.Error().Err(err).Msg("session cookie issue failed")
		return err
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, sessionResponse{
		Success:   true,
		Principal: viewOf(resolved.Principal),
		Redirect:  resolved.Redirect,
	})
}

// Logout destroys the caller's session and expires the cookie. Destroying a
// session that is already gone is still a success.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid, err := h.cookies.SessionID(c); err == nil {
		if err := h.auth.Logout(c.Request().Context(), sid); err != nil {
			h.log.Error().Err(err).Msg("session delete failed")
		}
	}

	c.SetCookie(h.cookies.Clear())
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type currentSessionResponse struct {
	Success     bool      `json:"success"`
	PrincipalID string    `json:"principal_id"`
	Role        string    `json:"role"`
	MerchantID  *string   `json:"merchant_id,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CurrentSession reports the caller's resolved session, if any.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  currentSessionResponse
// @Failure      401  {object}  failureResponse
// @Router       /auth/session [get]
func (h *AuthHandler) CurrentSession(c echo.Context) error {
	session := middleware.SessionFrom(c)
	if session == nil {
		return c.JSON(http.StatusUnauthorized, failureResponse{
			Reason:  string(handshake.ReasonAuthRequired),
			Message: handshake.ReasonAuthRequired.Message(),
		})
	}

	return c.JSON(http.StatusOK, currentSessionResponse{
		Success:     true,
		PrincipalID: session.PrincipalID,
		Role:        string(session.Role),
		MerchantID:  session.EffectiveMerchantID(),
		ExpiresAt:   session.ExpiresAt,
	})
}

// refuse answers a denied request: a reason-only redirect for browsers, a
// JSON envelope for XHR callers. Failure never redirects into the app.
func (h *AuthHandler) refuse(c echo.Context, reason handshake.FailureReason) error {
	if middleware.WantsJSON(c) {
		status := http.StatusUnauthorized
		switch reason {
		case handshake.ReasonAccessDenied, handshake.ReasonIdentityDenied:
			status = http.StatusForbidden
		case handshake.ReasonNetworkError:
			status = http.StatusInternalServerError
		}
		return c.JSON(status, failureResponse{
			Reason:  string(reason),
			Message: reason.Message(),
		})
	}
	return c.Redirect(http.StatusFound, "/login?reason="+string(reason))
}

func viewOf(p *domain.Principal) principalView {
	return principalView{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
	}
}
