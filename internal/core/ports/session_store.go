package ports

import (
	"context"

	"github.com/channelpass/platform/internal/core/domain"
)

// SessionStore persists resolved sessions. The gate's hot path only ever
// reads; creation belongs to the resolver and deletion to logout.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error

	// Find returns domain.ErrNoSession when the id is unknown or the record
	// has already been evicted.
	Find(ctx context.Context, id string) (*domain.Session, error)

	// Delete is idempotent; removing an absent session is not an error.
	Delete(ctx context.Context, id string) error
}
