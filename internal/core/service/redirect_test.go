package service

import (
	"testing"

	"github.com/channelpass/platform/internal/core/domain"
)

func TestIntersectRedirect(t *testing.T) {
	cases := []struct {
		name      string
		role      domain.Role
		requested string
		want      string
	}{
		{"merchant default", domain.RoleMerchantOwner, "", "/dashboard"},
		{"merchant inside tree", domain.RoleMerchantOwner, "/dashboard/services", "/dashboard/services"},
		{"merchant keeps query", domain.RoleMerchantOwner, "/dashboard/services?tab=active", "/dashboard/services?tab=active"},
		{"merchant cannot reach staff area", domain.RoleMerchantOwner, "/admin/payouts", "/dashboard"},
		{"merchant path traversal", domain.RoleMerchantOwner, "/app/../admin", "/dashboard"},
		{"end user default", domain.RoleEndUser, "", "/app"},
		{"end user cannot reach dashboard", domain.RoleEndUser, "/dashboard", "/app"},
		{"staff default is admin", domain.RoleSuperAdmin, "", "/admin"},
		{"staff never lands on merchant root by accident", domain.RolePlatformManager, "/somewhere", "/admin"},
		{"staff explicit merchant dashboard honoured", domain.RolePlatformSupport, "/dashboard/m_1", "/dashboard/m_1"},
		{"relative path rejected", domain.RoleEndUser, "app/home", "/app"},
		{"protocol-relative rejected", domain.RoleMerchantOwner, "//evil.example/dashboard", "/dashboard"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IntersectRedirect(tc.role, tc.requested); got != tc.want {
				t.Fatalf("IntersectRedirect(%s, %q) = %q, want %q", tc.role, tc.requested, got, tc.want)
			}
		})
	}
}

func TestIntersectRedirect_UnknownRole(t *testing.T) {
	if got := IntersectRedirect(domain.Role("intern"), "/admin"); got != "" {
		t.Fatalf("unknown role must get no destination, got %q", got)
	}
}
