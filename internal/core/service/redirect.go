package service

import (
	"path"
	"strings"

	"github.com/channelpass/platform/internal/core/domain"
)

// roleHome is where each role lands when it asked for nothing, or for
// something outside its permitted tree.
var roleHome = map[domain.Role]string{
	domain.RoleSuperAdmin:      "/admin",
	domain.RolePlatformManager: "/admin",
	domain.RolePlatformSupport: "/admin",
	domain.RoleMerchantOwner:   "/dashboard",
	domain.RoleEndUser:         "/app",
}

// permittedTrees lists the path prefixes each role may be redirected into.
// Platform staff may explicitly ask for a merchant dashboard (support
// impersonation flows) but are never sent there by default; merchants and
// end-users can never be redirected into the staff area, whatever they
// requested.
var permittedTrees = map[domain.Role][]string{
	domain.RoleSuperAdmin:      {"/admin", "/dashboard"},
	domain.RolePlatformManager: {"/admin", "/dashboard"},
	domain.RolePlatformSupport: {"/admin", "/dashboard"},
	domain.RoleMerchantOwner:   {"/dashboard", "/app"},
	domain.RoleEndUser:         {"/app"},
}

// IntersectRedirect returns the requested path when it sits inside the
// role's permitted trees, otherwise the role's home. Unknown roles get no
// destination at all; callers must have validated the role first.
func IntersectRedirect(role domain.Role, requested string) string {
	home, ok := roleHome[role]
	if !ok {
		return ""
	}
	if requested == "" {
		return home
	}

	reqPath, query := requested, ""
	if i := strings.IndexByte(requested, '?'); i >= 0 {
		reqPath, query = requested[:i], requested[i:]
	}

	// Normalise before matching so "/admin/../dashboard" cannot sneak past
	// the prefix check. Anything that is not an absolute path falls back to
	// home rather than becoming an open redirect.
	clean := path.Clean(reqPath)
	if !strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, "//") {
		return home
	}

	for _, tree := range permittedTrees[role] {
		if clean == tree || strings.HasPrefix(clean, tree+"/") {
			return clean + query
		}
	}
	return home
}
