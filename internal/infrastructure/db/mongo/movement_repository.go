package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

const collectionMovements = "stock_movements"

// MovementRepository implements ports.MovementRepository using MongoDB.
type MovementRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(db *mongo.Database, timeout time.Duration) *MovementRepository {
	return &MovementRepository{col: db.Collection(collectionMovements), timeout: timeout}
}

type movementDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	SweetID       string             `bson:"sweet_id"`
	Kind          string             `bson:"kind"`
	Delta         int64              `bson:"delta"`
	QuantityAfter int64              `bson:"quantity_after"`
	UserID        string             `bson:"user_id,omitempty"`
	At            time.Time          `bson:"at"`
}

// Insert persists a stock movement to the audit collection.
func (r *MovementRepository) Insert(ctx context.Context, m *domain.StockMovement) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := movementDoc{
		SweetID:       m.SweetID,
		Kind:          string(m.Kind),
		Delta:         m.Delta,
		QuantityAfter: m.QuantityAfter,
		UserID:        m.UserID,
		At:            m.At.UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return storeError("insert movement", err)
	}
	return nil
}

// ListBySweet returns up to limit movements of a sweet, newest first.
func (r *MovementRepository) ListBySweet(ctx context.Context, sweetID string, limit int) ([]*domain.StockMovement, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"sweet_id": sweetID}, opts)
	if err != nil {
		return nil, storeError("list movements", err)
	}
	defer cur.Close(ctx)

	var docs []movementDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode movements", err)
	}

	out := make([]*domain.StockMovement, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.StockMovement{
			SweetID:       d.SweetID,
			Kind:          domain.MovementKind(d.Kind),
			Delta:         d.Delta,
			QuantityAfter: d.QuantityAfter,
			UserID:        d.UserID,
			At:            d.At.UTC(),
		})
	}
	return out, nil
}

// EnsureIndexes creates the (sweet_id, at) index used by ListBySweet.
func (r *MovementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sweet_id", Value: 1}, {Key: "at", Value: -1}},
	})
	if err != nil {
		return storeError("create movement indexes", err)
	}
	return nil
}
