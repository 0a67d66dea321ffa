package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/models"
)

type productRepo struct {
	col *mongo.Collection
}

func (r *productRepo) Insert(ctx context.Context, p *models.Product) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, apperr.Conflict("product already exists with name %q", p.Name)
		}
		return primitive.NilObjectID, err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return p.ID, nil
}

func (r *productRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("product is not found with this id: %s", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	filter := bson.M{}
	if q.Search != "" {
		filter["name"] = bson.M{"$regex": q.Search, "$options": "i"}
	}
	if len(q.Categories) > 0 {
		filter["categories"] = bson.M{"$in": q.Categories}
	}
	price := bson.M{}
	if q.MinPrice > 0 {
		price["$gte"] = q.MinPrice
	}
	if q.MaxPrice > 0 {
		price["$lte"] = q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	count, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	switch q.Sort {
	case "price":
		sort = bson.D{{Key: "price", Value: 1}}
	case "-price":
		sort = bson.D{{Key: "price", Value: -1}}
	}

	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		skip := int64(q.Page-1) * int64(q.Limit)
		if skip < 0 {
			skip = 0
		}
		opts.SetSkip(skip).SetLimit(int64(q.Limit))
	}

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *productRepo) Replace(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("product is not found with this id: %s", p.ID.Hex())
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("product is not found with this id: %s", id.Hex())
	}
	return nil
}

func (r *productRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *productRepo) AnyWithCategory(ctx context.Context, categoryID primitive.ObjectID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"categories": categoryID}, options.Count().SetLimit(1))
	return n > 0, err
}

var after = options.FindOneAndUpdate().SetReturnDocument(options.After)

// Reserve decrements quantity and increments sold in a single conditional
// update. The quantity guard makes oversell impossible under concurrent
// reservations: the filter only matches while enough stock remains.
func (r *productRepo) Reserve(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	var p models.Product
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"quantity": -qty, "sold": qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		after,
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		exists, exErr := r.exists(ctx, id)
		if exErr != nil {
			return nil, exErr
		}
		if !exists {
			return nil, apperr.NotFound("product is not found with this id: %s", id.Hex())
		}
		return nil, apperr.InsufficientStock("quantity of product %s has exceeded the available stock", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Release reverses a reservation. When the recorded sold count is lower than
// the released quantity, sold clamps at zero instead of going negative.
func (r *productRepo) Release(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	var p models.Product
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sold": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"quantity": qty, "sold": -qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		after,
	).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// sold < qty: clamp
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"quantity": qty},
			"$set": bson.M{"sold": 0, "updatedAt": time.Now().UTC()},
		},
		after,
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("product is not found with this id: %s", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}
