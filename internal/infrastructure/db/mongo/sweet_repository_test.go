package mongo

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

func sweetBSON(id primitive.ObjectID, name string, price float64, qty int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "category", Value: "Indian"},
		{Key: "price", Value: price},
		{Key: "quantity", Value: qty},
		{Key: "created_at", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "updated_at", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func TestSweetRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := mtest.TestDb + "." + collectionSweets

	mt.Run("create fills id", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		s := &domain.Sweet{Name: "Ladoo", Category: "Indian", Price: 1.5, Quantity: 50}
		require.NoError(mt, repo.Create(ctx, s))
		_, err := primitive.ObjectIDFromHex(s.ID)
		assert.NoError(mt, err, "id should be an ObjectID hex")
	})

	mt.Run("create duplicate name", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		mt.AddMockResponses(duplicateKeyResponse())

		err := repo.Create(ctx, &domain.Sweet{Name: "Ladoo"})
		assert.ErrorIs(mt, err, domain.ErrSweetExists)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, sweetBSON(oid, "Ladoo", 1.5, 50)))

		got, err := repo.FindByID(ctx, oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), got.ID)
		assert.Equal(mt, "Ladoo", got.Name)
		assert.Equal(mt, int64(50), got.Quantity)
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrSweetNotFound)
	})

	mt.Run("malformed id never reaches the server", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)

		_, err := repo.FindByID(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, domain.ErrSweetNotFound)
		_, err = repo.Decrement(ctx, "not-an-object-id", 1)
		assert.ErrorIs(mt, err, domain.ErrSweetNotFound)
		_, err = repo.Delete(ctx, "123")
		assert.ErrorIs(mt, err, domain.ErrSweetNotFound)
		assert.Empty(mt, mt.GetAllStartedEvents())
	})

	mt.Run("list sorts by name and escapes the name filter", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			sweetBSON(primitive.NewObjectID(), "Barfi", 2, 1),
			sweetBSON(primitive.NewObjectID(), "Ladoo", 1.5, 3),
		))

		minPrice, maxPrice := 1.0, 2.0
		got, err := repo.List(ctx, domain.SweetFilter{Name: "a.b", MinPrice: &minPrice, MaxPrice: &maxPrice})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "Barfi", got[0].Name)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("filter").Document()
		pattern, _ := filter.Lookup("name").Regex()
		assert.Equal(mt, `a\.b`, pattern)
		assert.Equal(mt, 1.0, filter.Lookup("price", "$gte").Double())
		assert.Equal(mt, 2.0, filter.Lookup("price", "$lte").Double())
		assert.Equal(mt, int32(1), started.Command.Lookup("sort", "name").Int32())
	})

	mt.Run("decrement success", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sweetBSON(oid, "Ladoo", 1.5, 49)}))

		got, err := repo.Decrement(ctx, oid.Hex(), 1)
		require.NoError(mt, err)
		assert.Equal(mt, int64(49), got.Quantity)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		assert.Equal(mt, int64(1), started.Command.Lookup("query", "quantity", "$gte").Int64())
		assert.Equal(mt, int64(-1), started.Command.Lookup("update", "$inc", "quantity").Int64())
	})

	mt.Run("decrement out of stock", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, sweetBSON(oid, "Ladoo", 1.5, 49)),
		)

		_, err := repo.Decrement(ctx, oid.Hex(), 100)
		assert.ErrorIs(mt, err, domain.ErrOutOfStock)
	})

	mt.Run("decrement missing sweet", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.Decrement(ctx, primitive.NewObjectID().Hex(), 1)
		assert.ErrorIs(mt, err, domain.ErrSweetNotFound)
	})

	mt.Run("update rename conflict", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Message: "E11000 duplicate key error", Name: "DuplicateKey"}))

		name := "Barfi"
		_, _, err := repo.Update(ctx, primitive.NewObjectID().Hex(), domain.SweetPatch{Name: &name})
		assert.ErrorIs(mt, err, domain.ErrSweetExists)
	})

	mt.Run("update returns state before and after", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sweetBSON(oid, "Ladoo", 1.5, 7)}))

		qty := int64(20)
		before, after, err := repo.Update(ctx, oid.Hex(), domain.SweetPatch{Quantity: &qty})
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), before.Quantity)
		assert.Equal(mt, int64(20), after.Quantity)
		assert.Equal(mt, "Ladoo", after.Name)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.False(mt, started.Command.Lookup("new").Boolean())
	})

	mt.Run("increment guards against overflow", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, sweetBSON(oid, "Ladoo", 1.5, math.MaxInt64-1)),
		)

		_, err := repo.Increment(ctx, oid.Hex(), 5)
		assert.ErrorIs(mt, err, domain.ErrStockLimit)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, int64(math.MaxInt64-5), started.Command.Lookup("query", "quantity", "$lte").Int64())
	})

	mt.Run("increment missing sweet", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.Increment(ctx, primitive.NewObjectID().Hex(), 1)
		assert.ErrorIs(mt, err, domain.ErrSweetNotFound)
	})

	mt.Run("delete returns last state", func(mt *mtest.T) {
		repo := NewSweetRepository(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sweetBSON(oid, "Ladoo", 1.5, 7)}))

		got, err := repo.Delete(ctx, oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), got.Quantity)
	})
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := mtest.TestDb + "." + collectionUsers

	mt.Run("create", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := repo.Create(ctx, &domain.User{Username: "alice", Role: domain.RoleCustomer})
		require.NoError(mt, err)
		assert.NotEmpty(mt, got.ID)
		assert.Equal(mt, domain.RoleCustomer, got.Role)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		mt.AddMockResponses(duplicateKeyResponse())

		_, err := repo.Create(ctx, &domain.User{Username: "alice"})
		assert.ErrorIs(mt, err, domain.ErrUserExists)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "password_hash", Value: "hash"},
			{Key: "role", Value: domain.RoleAdmin},
		}))

		got, err := repo.FindByEmail(ctx, "alice@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), got.ID)
		assert.Equal(mt, "hash", got.PasswordHash)
		assert.Equal(mt, domain.RoleAdmin, got.Role)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByUsername(ctx, "ghost")
		assert.ErrorIs(mt, err, domain.ErrUserNotFound)
	})
}

func TestMovementRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := mtest.TestDb + "." + collectionMovements

	mt.Run("insert", func(mt *mtest.T) {
		repo := NewMovementRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Insert(ctx, &domain.StockMovement{SweetID: "s1", Kind: domain.MovementPurchase, Delta: -2, QuantityAfter: 8, At: time.Now()})
		require.NoError(mt, err)
	})

	mt.Run("list newest first with limit", func(mt *mtest.T) {
		repo := NewMovementRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "sweet_id", Value: "s1"}, {Key: "kind", Value: "restock"}, {Key: "delta", Value: int64(5)}, {Key: "quantity_after", Value: int64(13)}},
			bson.D{{Key: "sweet_id", Value: "s1"}, {Key: "kind", Value: "purchase"}, {Key: "delta", Value: int64(-2)}, {Key: "quantity_after", Value: int64(8)}},
		))

		got, err := repo.ListBySweet(ctx, "s1", 2)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, domain.MovementRestock, got[0].Kind)
		assert.Equal(mt, int64(-2), got[1].Delta)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, int64(2), started.Command.Lookup("limit").Int64())
		assert.Equal(mt, int32(-1), started.Command.Lookup("sort", "at").Int32())
	})
}

func TestListFilter(t *testing.T) {
	maxPrice := 2.0

	assert.Empty(t, listFilter(domain.SweetFilter{}))

	f := listFilter(domain.SweetFilter{Name: "(deluxe", Category: "Indian", MaxPrice: &maxPrice})
	assert.Equal(t, primitive.Regex{Pattern: `\(deluxe`, Options: "i"}, f["name"])
	assert.Equal(t, "Indian", f["category"])
	assert.Equal(t, bson.M{"$lte": 2.0}, f["price"])
}
