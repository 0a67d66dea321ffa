package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/models"
)

// ProductStore is the persistence surface the catalog and inventory logic
// run against. Reserve and Release are atomic conditional updates: two
// concurrent reservations can never both consume the same stock.
type ProductStore interface {
	Insert(ctx context.Context, p *models.Product) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	Replace(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	AnyWithCategory(ctx context.Context, categoryID primitive.ObjectID) (bool, error)
	Reserve(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error)
	Release(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error)
}

type CategoryStore interface {
	Insert(ctx context.Context, c *models.Category) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	List(ctx context.Context, page, limit int) ([]models.Category, int64, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListAll(ctx context.Context, skip, limit int64) ([]models.Order, int64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	Remove(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	AnyForUser(ctx context.Context, userID primitive.ObjectID) (bool, error)
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q UserQuery) ([]models.User, int64, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EmailExists(ctx context.Context, email string, excludeID *primitive.ObjectID) (bool, error)
	IncBalance(ctx context.Context, id primitive.ObjectID, amount float64) (*models.User, error)
	SetAdmin(ctx context.Context, id primitive.ObjectID, isAdmin bool) (*models.User, error)
	SetBanned(ctx context.Context, id primitive.ObjectID, banned bool) (*models.User, error)
}

// ProductQuery filters and pages the product listing.
type ProductQuery struct {
	Search     string // name regex, case-insensitive
	Categories []primitive.ObjectID
	MinPrice   float64
	MaxPrice   float64
	Sort       string // "price" | "-price" | "" (newest first)
	Page       int
	Limit      int
}

// UserQuery filters and pages the admin user listing.
type UserQuery struct {
	Search   string // regex over firstName/lastName/email
	IsAdmin  *bool
	IsBanned *bool
	SortDesc bool
	Page     int
	Limit    int
}

// Store bundles the four collections behind one connected client.
type Store struct {
	client *mongo.Client

	Products   ProductStore
	Categories CategoryStore
	Orders     OrderStore
	Users      UserStore
}

func Connect(ctx context.Context, url, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:     client,
		Products:   &productRepo{col: db.Collection("products")},
		Categories: &categoryRepo{col: db.Collection("categories")},
		Orders:     &orderRepo{col: db.Collection("orders")},
		Users:      &userRepo{col: db.Collection("users")},
	}
	if err := s.ensureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	if _, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := db.Collection("categories").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("categories index: %w", err)
	}
	if _, err := db.Collection("orders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	}); err != nil {
		return fmt.Errorf("orders index: %w", err)
	}
	return nil
}

// ParseID validates a store-native identifier. Anything that is not a
// 24-character hex string is rejected before it reaches a collection.
func ParseID(hexID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("ID format is invalid, must be 24 hex characters: %q", hexID)
	}
	return id, nil
}
