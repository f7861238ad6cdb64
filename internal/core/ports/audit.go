package ports

import (
	"context"

	"github.com/channelpass/platform/internal/core/domain"
)

// AuditRepository persists handshake audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.HandshakeEvent) error
}

// AuditService processes one handshake event; implementations sit behind the
// async dispatcher so recording never blocks a redemption.
type AuditService interface {
	Process(ctx context.Context, event domain.HandshakeEvent) error
}

// AuditSink accepts events for asynchronous recording. Enqueue must never
// block the caller beyond a bounded buffer hand-off.
type AuditSink interface {
	Enqueue(event domain.HandshakeEvent)
}

// AttemptLimiter throttles repeated failed redemptions from one client.
type AttemptLimiter interface {
	// TooManyFailures reports whether the client identified by key has
	// exhausted its failure budget inside the current window.
	TooManyFailures(ctx context.Context, key string) (bool, error)

	// RecordFailure counts one failed redemption against key.
	RecordFailure(ctx context.Context, key string) error
}
