package domain

import (
	"errors"
	"time"
)

// Role is the closed set of identity tiers the platform recognises.
// A principal's role is assigned at account creation and is immutable
// through the handshake subsystem.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RolePlatformManager Role = "platform_manager"
	RolePlatformSupport Role = "platform_support"
	RoleMerchantOwner   Role = "merchant_owner"
	RoleEndUser         Role = "end_user"
)

var ErrUnknownRole = errors.New("unknown role")
var ErrPrincipalNotFound = errors.New("principal not found")
var ErrPrincipalExists = errors.New("principal already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrMerchantNotFound = errors.New("merchant not found")
var ErrMerchantSuspended = errors.New("merchant suspended")

// ParseRole converts a raw string into a Role. Anything outside the closed
// set fails; callers must treat the failure as a deny, never a default.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RolePlatformManager, RolePlatformSupport, RoleMerchantOwner, RoleEndUser:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// IsPlatformStaff reports whether the role operates platform-wide rather
// than inside a single merchant's catalog.
func (r Role) IsPlatformStaff() bool {
	switch r {
	case RoleSuperAdmin, RolePlatformManager, RolePlatformSupport:
		return true
	}
	return false
}

// ScopeKind discriminates the two tenant-scope variants.
type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeMerchant ScopeKind = "merchant"
)

// TenantScope is the authorization boundary a principal operates under:
// platform-wide, or confined to one merchant's service catalog. Exactly one
// variant holds; MerchantID is set if and only if Kind == ScopeMerchant.
type TenantScope struct {
	Kind       ScopeKind `json:"kind" bson:"kind"`
	MerchantID string    `json:"merchant_id,omitempty" bson:"merchant_id,omitempty"`
}

// GlobalScope returns the platform-wide scope.
func GlobalScope() TenantScope {
	return TenantScope{Kind: ScopeGlobal}
}

// MerchantScope returns a scope confined to one merchant.
func MerchantScope(merchantID string) TenantScope {
	return TenantScope{Kind: ScopeMerchant, MerchantID: merchantID}
}

// Valid reports whether the scope holds exactly one well-formed variant.
func (s TenantScope) Valid() bool {
	switch s.Kind {
	case ScopeGlobal:
		return s.MerchantID == ""
	case ScopeMerchant:
		return s.MerchantID != ""
	}
	return false
}

// RoleScope maps a role to its tenant scope. The mapping is total over the
// closed role set: platform staff always resolve to Global, merchant-facing
// roles always to Merchant(merchantID). A staff role carrying a merchant id,
// a merchant role missing one, or an unknown role are all errors — never a
// silently adjusted scope.
func RoleScope(role Role, merchantID string) (TenantScope, error) {
	switch role {
	case RoleSuperAdmin, RolePlatformManager, RolePlatformSupport:
		if merchantID != "" {
			return TenantScope{}, ErrUnknownRole
		}
		return GlobalScope(), nil
	case RoleMerchantOwner, RoleEndUser:
		if merchantID == "" {
			return TenantScope{}, ErrUnknownRole
		}
		return MerchantScope(merchantID), nil
	}
	return TenantScope{}, ErrUnknownRole
}

// Principal models an authenticated actor: an end-user, a merchant owner, or
// a platform staff member.
type Principal struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	TelegramID   int64     `json:"telegram_id,omitempty" bson:"telegram_id,omitempty"`
	DisplayName  string    `json:"display_name" bson:"display_name"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	Role         Role      `json:"role" bson:"role"`
	MerchantID   string    `json:"merchant_id,omitempty" bson:"merchant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Scope resolves the principal's tenant scope from its role and merchant id.
func (p *Principal) Scope() (TenantScope, error) {
	return RoleScope(p.Role, p.MerchantID)
}

// Merchant is the tenant selling subscription access to private channels.
// Only the fields the identity subsystem needs; catalog, pricing and payout
// data live elsewhere.
type Merchant struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	BotUsername string    `json:"bot_username" bson:"bot_username"`
	Suspended   bool      `json:"suspended" bson:"suspended"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
