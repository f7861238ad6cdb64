package ports

import (
	"context"

	"github.com/channelpass/platform/internal/core/domain"
)

// TokenStore persists magic-link tokens keyed by the digest of their opaque
// value.
type TokenStore interface {
	// Save stores a freshly issued token. The record expires from the store
	// shortly after the token itself does.
	Save(ctx context.Context, token *domain.MagicLinkToken) error

	// Consume atomically checks that the token identified by digest exists,
	// is unexpired and unconsumed, and marks it consumed — all as one
	// indivisible operation, so that two concurrent redemptions of the same
	// value yield exactly one success.
	//
	// Errors: domain.ErrTokenUnknown, domain.ErrTokenExpired,
	// domain.ErrTokenAlreadyUsed; anything else is a storage failure.
	Consume(ctx context.Context, digest string) (*domain.MagicLinkToken, error)
}
