package mongo

import (
	"context"
	"errors"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

const collectionSweets = "sweets"

// SweetRepository implements ports.SweetRepository using MongoDB.
type SweetRepository struct {
	col     *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

func NewSweetRepository(db *mongo.Database, timeout time.Duration) *SweetRepository {
	return &SweetRepository{col: db.Collection(collectionSweets), timeout: timeout, now: time.Now}
}

type sweetDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Category  string             `bson:"category"`
	Price     float64            `bson:"price"`
	Quantity  int64              `bson:"quantity"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *sweetDoc) toDomain() *domain.Sweet {
	return &domain.Sweet{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Category:  d.Category,
		Price:     d.Price,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Create inserts a new sweet document and fills s.ID.
func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := sweetDoc{
		ID:        primitive.NewObjectID(),
		Name:      s.Name,
		Category:  s.Category,
		Price:     s.Price,
		Quantity:  s.Quantity,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSweetExists
		}
		return storeError("insert sweet", err)
	}
	s.ID = doc.ID.Hex()
	return nil
}

// FindByID retrieves a sweet by its hex id.
func (r *SweetRepository) FindByID(ctx context.Context, id string) (*domain.Sweet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc sweetDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, storeError("find sweet", err)
	}
	return doc.toDomain(), nil
}

// List returns the sweets matching f sorted by name.
func (r *SweetRepository) List(ctx context.Context, f domain.SweetFilter) ([]*domain.Sweet, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.col.Find(ctx, listFilter(f), opts)
	if err != nil {
		return nil, storeError("list sweets", err)
	}
	defer cur.Close(ctx)

	var docs []sweetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode sweets", err)
	}

	out := make([]*domain.Sweet, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// listFilter builds the query for f. The name is matched literally and
// case-insensitively anywhere in the sweet's name.
func listFilter(f domain.SweetFilter) bson.M {
	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter
}

// Update applies p in one findAndModify that returns the prior document; the
// updated state is derived from it so both sides describe the same write.
func (r *SweetRepository) Update(ctx context.Context, id string, p domain.SweetPatch) (*domain.Sweet, *domain.Sweet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil, domain.ErrSweetNotFound
	}

	now := r.now().UTC()
	set := bson.M{"updated_at": now}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Quantity != nil {
		set["quantity"] = *p.Quantity
	}

	before, err := r.findOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, options.Before)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, nil, domain.ErrSweetExists
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, domain.ErrSweetNotFound
		}
		return nil, nil, storeError("update sweet", err)
	}

	after := *before
	if p.Name != nil {
		after.Name = *p.Name
	}
	if p.Category != nil {
		after.Category = *p.Category
	}
	if p.Price != nil {
		after.Price = *p.Price
	}
	if p.Quantity != nil {
		after.Quantity = *p.Quantity
	}
	after.UpdatedAt = now.Truncate(time.Millisecond)
	return before, &after, nil
}

// Delete removes the sweet and returns its last state.
func (r *SweetRepository) Delete(ctx context.Context, id string) (*domain.Sweet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc sweetDoc
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, storeError("delete sweet", err)
	}
	return doc.toDomain(), nil
}

// Decrement subtracts n in a single conditional update matching only while
// at least n units remain. When nothing matched, a lookup tells a missing
// sweet apart from insufficient stock.
func (r *SweetRepository) Decrement(ctx context.Context, id string, n int64) (*domain.Sweet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSweetNotFound
	}

	filter := bson.M{"_id": oid, "quantity": bson.M{"$gte": n}}
	update := bson.M{
		"$inc": bson.M{"quantity": -n},
		"$set": bson.M{"updated_at": r.now().UTC()},
	}

	sweet, err := r.findOneAndUpdate(ctx, filter, update, options.After)
	if err == nil {
		return sweet, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeError("decrement stock", err)
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrOutOfStock
}

// Increment adds n, matching only while the result still fits an int64.
// When nothing matched, a lookup tells a missing sweet apart from overflow.
func (r *SweetRepository) Increment(ctx context.Context, id string, n int64) (*domain.Sweet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSweetNotFound
	}

	filter := bson.M{"_id": oid, "quantity": bson.M{"$lte": math.MaxInt64 - n}}
	update := bson.M{
		"$inc": bson.M{"quantity": n},
		"$set": bson.M{"updated_at": r.now().UTC()},
	}

	sweet, err := r.findOneAndUpdate(ctx, filter, update, options.After)
	if err == nil {
		return sweet, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeError("increment stock", err)
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrStockLimit
}

func (r *SweetRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, rd options.ReturnDocument) (*domain.Sweet, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(rd)

	var doc sweetDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates necessary indexes on the sweets collection.
func (r *SweetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return storeError("create sweet indexes", err)
	}
	return nil
}
