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

type userRepo struct {
	col *mongo.Collection
}

// noPassword keeps the password hash out of every read that leaves the
// login path.
var noPassword = bson.M{"password": 0}

func (r *userRepo) Insert(ctx context.Context, u *models.User) (primitive.ObjectID, error) {
	u.CreatedAt = time.Now().UTC()
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, apperr.Conflict("this email is already exists")
		}
		return primitive.NilObjectID, err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u.ID, nil
}

func (r *userRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(noPassword)).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user was not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(noPassword))
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByEmail is the login lookup; it is the only read that returns the
// password hash.
func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user was not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context, q UserQuery) ([]models.User, int64, error) {
	filter := bson.M{}
	if q.Search != "" {
		re := bson.M{"$regex": q.Search, "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"firstName": re},
			bson.M{"lastName": re},
			bson.M{"email": re},
		}
	}
	if q.IsAdmin != nil {
		filter["isAdmin"] = *q.IsAdmin
	}
	if q.IsBanned != nil {
		filter["isBanned"] = *q.IsBanned
	}

	count, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	dir := 1
	if q.SortDesc {
		dir = -1
	}
	opts := options.Find().
		SetProjection(noPassword).
		SetSort(bson.D{{Key: "firstName", Value: dir}, {Key: "lastName", Value: dir}})
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
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (r *userRepo) Update(ctx context.Context, u *models.User) error {
	set := bson.M{
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
	}
	if u.Password != "" {
		set["password"] = u.Password
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("this email is already exists")
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user was not found")
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("user with %s was not found", id.Hex())
	}
	return nil
}

func (r *userRepo) EmailExists(ctx context.Context, email string, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{"email": email}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *userRepo) IncBalance(ctx context.Context, id primitive.ObjectID, amount float64) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$inc": bson.M{"balance": amount}})
}

func (r *userRepo) SetAdmin(ctx context.Context, id primitive.ObjectID, isAdmin bool) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"isAdmin": isAdmin}})
}

func (r *userRepo) SetBanned(ctx context.Context, id primitive.ObjectID, banned bool) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"isBanned": banned}})
}

func (r *userRepo) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	var u models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(noPassword),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user was not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
