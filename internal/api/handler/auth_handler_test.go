package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/channelpass/platform/internal/api/middleware"
	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
	"github.com/channelpass/platform/internal/core/service"
)

type stubAuthService struct {
	redeemFn    func(ctx context.Context, input ports.RedeemInput) (*ports.ResolvedSession, error)
	issueLinkFn func(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error)
	loginFn     func(ctx context.Context, email, password string) (*ports.ResolvedSession, error)
	logoutFn    func(ctx context.Context, sessionID string) error
}

func (s *stubAuthService) Redeem(ctx context.Context, input ports.RedeemInput) (*ports.ResolvedSession, error) {
	return s.redeemFn(ctx, input)
}

func (s *stubAuthService) IssueLink(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
	return s.issueLinkFn(ctx, input)
}

func (s *stubAuthService) StaffLogin(ctx context.Context, email, password string) (*ports.ResolvedSession, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	return s.logoutFn(ctx, sessionID)
}

func testCookies() *middleware.CookieCodec {
	return middleware.NewCookieCodec("cp_session", "test-secret", false)
}

func resolvedFor(principal *domain.Principal, redirect string) *ports.ResolvedSession {
	now := time.Now().UTC()
	scope, _ := principal.Scope()
	return &ports.ResolvedSession{
		Session: &domain.Session{
			ID:          "sess_1",
			PrincipalID: principal.ID,
			Role:        principal.Role,
			Scope:       scope,
			IssuedAt:    now,
			ExpiresAt:   now.Add(24 * time.Hour),
			Version:     1,
		},
		Principal: principal,
		Redirect:  redirect,
		IssuedAt:  now,
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "cp_session" {
			return cookie
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func TestAuthHandler_Redeem_BrowserSuccess(t *testing.T) {
	e := echo.New()
	owner := &domain.Principal{ID: "p_owner", DisplayName: "Olga", Role: domain.RoleMerchantOwner, MerchantID: "m_1"}
	stub := &stubAuthService{
		redeemFn: func(ctx context.Context, input ports.RedeemInput) (*ports.ResolvedSession, error) {
			if input.TokenValue != "tok_value" || input.Redirect != "/dashboard" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return resolvedFor(owner, "/dashboard"), nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/auth/magic?token=tok_value&redirect=/dashboard", nil)
	req.Header.Set(echo.HeaderAccept, "text/html")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/dashboard" {
		t.Fatalf("expected /dashboard, got %q", loc)
	}
	if cookie := sessionCookie(t, rec); cookie.Value == "" {
		t.Fatalf("expected a signed session cookie")
	}
}

func TestAuthHandler_Redeem_XHRSuccess(t *testing.T) {
	e := echo.New()
	owner := &domain.Principal{ID: "p_owner", DisplayName: "Olga", Role: domain.RoleMerchantOwner, MerchantID: "m_1"}
	stub := &stubAuthService{
		redeemFn: func(ctx context.Context, input ports.RedeemInput) (*ports.ResolvedSession, error) {
			return resolvedFor(owner, "/dashboard"), nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/auth/magic?token=tok_value", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["success"] != true || resp["redirect"] != "/dashboard" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	principal, ok := resp["principal"].(map[string]any)
	if !ok || principal["id"] != "p_owner" || principal["role"] != "merchant_owner" {
		t.Fatalf("unexpected principal payload: %+v", principal)
	}
}

func TestAuthHandler_Redeem_BrowserFailureRedirectsToLogin(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		redeemFn: func(ctx context.Context, input ports.RedeemInput) (*ports.ResolvedSession, error) {
			return nil, domain.ErrTokenAlreadyUsed
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/auth/magic?token=used", nil)
	req.Header.Set(echo.HeaderAccept, "text/html")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get(echo.HeaderLocation)
	if loc != "/login?reason=link_invalid" {
		t.Fatalf("failure must land on the login surface with a reason, got %q", loc)
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "cp_session" {
			t.Fatalf("no session cookie may be set on failure")
		}
	}
}

func TestAuthHandler_Redeem_XHRFailure(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		redeemFn: func(ctx context.Context, input ports.RedeemInput) (*ports.ResolvedSession, error) {
			return nil, domain.ErrTokenUnknown
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/auth/magic?token=ghost", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp failureResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Success || resp.Reason != "link_invalid" || resp.Message == "" {
		t.Fatalf("unexpected failure payload: %+v", resp)
	}
}

func TestAuthHandler_IssueLink_Staff(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		issueLinkFn: func(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
			if input.Kind != domain.KindMerchantLink || input.PrincipalID != "p_owner" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &ports.IssuedLink{Value: "tok_value", Kind: input.Kind, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"kind":"merchant_link","principal_id":"p_owner","redirect":"/dashboard"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/links", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("authorized", &service.AuthorizedContext{
		PrincipalID: "p_admin",
		Role:        domain.RoleSuperAdmin,
		Scope:       domain.GlobalScope(),
	})

	if err := handler.IssueLink(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp issueLinkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Value != "tok_value" || resp.Kind != "merchant_link" {
		t.Fatalf("unexpected link payload: %+v", resp)
	}
}

func TestAuthHandler_IssueLink_MemberLinkCarriesDeepLink(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		issueLinkFn: func(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
			return &ports.IssuedLink{Value: "tok_value", Kind: input.Kind, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"kind":"member_link","principal_id":"p_member","redirect":"/app"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/links", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	merchantID := "m_1"
	c.Set("authorized", &service.AuthorizedContext{
		PrincipalID:         "p_owner",
		Role:                domain.RoleMerchantOwner,
		Scope:               domain.MerchantScope(merchantID),
		EffectiveMerchantID: &merchantID,
	})

	if err := handler.IssueLink(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp issueLinkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !strings.HasPrefix(resp.DeepLink, "https://t.me/channelpass_bot?start=") {
		t.Fatalf("expected a bot deep link, got %q", resp.DeepLink)
	}
}

func TestAuthHandler_IssueLink_OwnerCarriesTenantPin(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		issueLinkFn: func(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
			if input.IssuerMerchantID == nil || *input.IssuerMerchantID != "m_1" {
				t.Fatalf("merchant issuer must be pinned to its tenant, got %v", input.IssuerMerchantID)
			}
			return &ports.IssuedLink{Value: "tok_value", Kind: input.Kind, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"kind":"member_link","principal_id":"p_member"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/links", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	merchantID := "m_1"
	c.Set("authorized", &service.AuthorizedContext{
		PrincipalID:         "p_owner",
		Role:                domain.RoleMerchantOwner,
		Scope:               domain.MerchantScope(merchantID),
		EffectiveMerchantID: &merchantID,
	})

	if err := handler.IssueLink(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_IssueLink_StaffIsUnpinned(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		issueLinkFn: func(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
			if input.IssuerMerchantID != nil {
				t.Fatalf("platform staff issuance must not carry a tenant pin, got %v", *input.IssuerMerchantID)
			}
			return &ports.IssuedLink{Value: "tok_value", Kind: input.Kind, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"kind":"member_link","principal_id":"p_member"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/links", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("authorized", &service.AuthorizedContext{
		PrincipalID: "p_admin",
		Role:        domain.RoleSuperAdmin,
		Scope:       domain.GlobalScope(),
	})

	if err := handler.IssueLink(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_IssueLink_OwnerLimitedToMemberLinks(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		issueLinkFn: func(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"kind":"staff_link","principal_id":"p_admin"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/links", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	merchantID := "m_1"
	c.Set("authorized", &service.AuthorizedContext{
		PrincipalID:         "p_owner",
		Role:                domain.RoleMerchantOwner,
		Scope:               domain.MerchantScope(merchantID),
		EffectiveMerchantID: &merchantID,
	})

	if err := handler.IssueLink(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthHandler_IssueLink_InvalidKind(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		issueLinkFn: func(ctx context.Context, input ports.IssueLinkInput) (*ports.IssuedLink, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"kind":"mystery_link","principal_id":"p_x"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/links", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.IssueLink(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_StaffLogin_Success(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	admin := &domain.Principal{ID: "p_admin", DisplayName: "Ada", Role: domain.RoleSuperAdmin}
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.ResolvedSession, error) {
			if email != "ada@channelpass.io" || password != "s3cret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return resolvedFor(admin, "/admin"), nil
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"email":"ada@channelpass.io","password":"s3cret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/staff/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.StaffLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cookie := sessionCookie(t, rec); cookie.Value == "" {
		t.Fatalf("expected a session cookie")
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["redirect"] != "/admin" {
		t.Fatalf("staff lands on /admin, got %v", resp["redirect"])
	}
}

func TestAuthHandler_StaffLogin_InvalidCredentials(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.ResolvedSession, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	body := strings.NewReader(`{"email":"ada@channelpass.io","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/staff/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.StaffLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := echo.New()
	cookies := testCookies()

	var destroyed string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			destroyed = sessionID
			return nil
		},
	}
	handler := NewAuthHandler(stub, cookies, "https://t.me/channelpass_bot", zerolog.Nop())

	cookie, _ := cookies.Issue("sess_1", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if destroyed != "sess_1" {
		t.Fatalf("expected sess_1 destroyed, got %q", destroyed)
	}
	if cookie := sessionCookie(t, rec); cookie.MaxAge >= 0 && cookie.Value != "" {
		t.Fatalf("logout must expire the cookie, got %+v", cookie)
	}
}

func TestAuthHandler_CurrentSession(t *testing.T) {
	e := echo.New()
	handler := NewAuthHandler(&stubAuthService{}, testCookies(), "https://t.me/channelpass_bot", zerolog.Nop())

	// Without a resolved session.
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CurrentSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// With one.
	now := time.Now().UTC()
	req = httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("session", &domain.Session{
		ID:          "sess_1",
		PrincipalID: "p_owner",
		Role:        domain.RoleMerchantOwner,
		Scope:       domain.MerchantScope("m_1"),
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
		Version:     1,
	})

	if err := handler.CurrentSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp currentSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.PrincipalID != "p_owner" || resp.MerchantID == nil || *resp.MerchantID != "m_1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
