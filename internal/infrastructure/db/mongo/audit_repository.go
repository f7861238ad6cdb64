package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/channelpass/platform/internal/core/domain"
)

const auditCollection = "handshake_events"

// MongoAuditRepository appends handshake audit records. Events are immutable
// once written; there is no update path.
type MongoAuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(auditCollection)}
}

type mongoHandshakeEvent struct {
	PrincipalID string `bson:"principal_id,omitempty"`
	TokenKind   string `bson:"token_kind,omitempty"`
	Outcome     string `bson:"outcome"`
	RemoteIP    string `bson:"remote_ip,omitempty"`
	Timestamp   int64  `bson:"timestamp"`
}

func (r *MongoAuditRepository) Insert(ctx context.Context, event *domain.HandshakeEvent) error {
	doc := mongoHandshakeEvent{
		PrincipalID: event.PrincipalID,
		TokenKind:   string(event.TokenKind),
		Outcome:     string(event.Outcome),
		RemoteIP:    event.RemoteIP,
		Timestamp:   event.Timestamp.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert handshake event: %w", err)
	}
	return nil
}
