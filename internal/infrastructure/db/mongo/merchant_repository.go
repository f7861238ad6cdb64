package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/channelpass/platform/internal/core/domain"
)

const merchantCollection = "merchants"

type MongoMerchantRepository struct {
	coll *mongo.Collection
}

func NewMerchantRepository(db *mongo.Database) *MongoMerchantRepository {
	return &MongoMerchantRepository{coll: db.Collection(merchantCollection)}
}

type mongoMerchant struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	OwnerID   string `bson:"owner_id"`
	Suspended bool   `bson:"suspended"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *MongoMerchantRepository) FindByID(ctx context.Context, id string) (*domain.Merchant, error) {
	var mm mongoMerchant
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mm); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrMerchantNotFound
		}
		return nil, fmt.Errorf("find merchant: %w", err)
	}

	return &domain.Merchant{
		ID:        mm.ID,
		Name:      mm.Name,
		OwnerID:   mm.OwnerID,
		Suspended: mm.Suspended,
		CreatedAt: unixToTime(mm.CreatedAt),
	}, nil
}
