package service

import (
	"context"
	"fmt"

	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
)

// AuditService persists handshake audit events. It runs behind the async
// dispatcher, so a slow or broken audit store never stalls a redemption.
type AuditService struct {
	repo ports.AuditRepository
}

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Process(ctx context.Context, event domain.HandshakeEvent) error {
	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}
