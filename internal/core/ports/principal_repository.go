package ports

import (
	"context"

	"github.com/channelpass/platform/internal/core/domain"
)

// PrincipalRepository is the directory of authenticated actors.
type PrincipalRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Principal, error)
	FindByEmail(ctx context.Context, email string) (*domain.Principal, error)
	Create(ctx context.Context, principal *domain.Principal) (*domain.Principal, error)
}

// MerchantRepository resolves tenant metadata for merchant-scoped sessions.
type MerchantRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Merchant, error)
}
