package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/channelpass/platform/internal/core/domain"
)

const principalCollection = "principals"

type MongoPrincipalRepository struct {
	coll *mongo.Collection
}

func NewPrincipalRepository(db *mongo.Database) *MongoPrincipalRepository {
	return &MongoPrincipalRepository{coll: db.Collection(principalCollection)}
}

type mongoPrincipal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	TelegramID   int64              `bson:"telegram_id,omitempty"`
	DisplayName  string             `bson:"display_name"`
	Email        string             `bson:"email,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	Role         string             `bson:"role"`
	MerchantID   string             `bson:"merchant_id,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (r *MongoPrincipalRepository) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPrincipalNotFound
	}

	var mp mongoPrincipal
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}
	return mp.toDomain()
}

func (r *MongoPrincipalRepository) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	var mp mongoPrincipal
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}
	return mp.toDomain()
}

func (r *MongoPrincipalRepository) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	doc := mongoPrincipal{
		TelegramID:   p.TelegramID,
		DisplayName:  p.DisplayName,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         string(p.Role),
		MerchantID:   p.MerchantID,
		CreatedAt:    p.CreatedAt.Unix(),
		UpdatedAt:    p.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrPrincipalExists
		}
		return nil, fmt.Errorf("insert principal: %w", err)
	}

	created := *p
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (mp mongoPrincipal) toDomain() (*domain.Principal, error) {
	// Role strings from storage go through the closed-set parser; a record
	// with a stray role never reaches an authorization decision.
	role, err := domain.ParseRole(mp.Role)
	if err != nil {
		return nil, err
	}

	return &domain.Principal{
		ID:           mp.ID.Hex(),
		TelegramID:   mp.TelegramID,
		DisplayName:  mp.DisplayName,
		Email:        mp.Email,
		PasswordHash: mp.PasswordHash,
		Role:         role,
		MerchantID:   mp.MerchantID,
		CreatedAt:    unixToTime(mp.CreatedAt),
		UpdatedAt:    unixToTime(mp.UpdatedAt),
	}, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
