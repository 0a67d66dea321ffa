package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"        json:"id"`
	Name        string               `bson:"name"                 json:"name"`
	Price       float64              `bson:"price"                json:"price"`
	Quantity    int                  `bson:"quantity"             json:"quantity"`
	Sold        int                  `bson:"sold"                 json:"sold"`
	Description string               `bson:"description"          json:"description"`
	Categories  []primitive.ObjectID `bson:"categories,omitempty" json:"categories"`
	Sizes       []string             `bson:"sizes,omitempty"      json:"sizes"`
	Variants    []string             `bson:"variants,omitempty"   json:"variants"`
	Image       string               `bson:"image,omitempty"      json:"image"`
	CreatedAt   time.Time            `bson:"createdAt"            json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"            json:"updatedAt"`
}

type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name"          json:"name"`
}

// OrderLine is one (product, quantity) pair inside an order.
type OrderLine struct {
	Product  primitive.ObjectID `bson:"product"  json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Order.Payment holds the gateway result verbatim; the refund amount lives
// at payment.transaction.amount.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Products  []OrderLine        `bson:"products"      json:"products"`
	Payment   bson.M             `bson:"payment"       json:"payment"`
	User      primitive.ObjectID `bson:"user"          json:"user"`
	Status    OrderStatus        `bson:"status"        json:"status"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName string             `bson:"firstName"     json:"firstName"`
	LastName  string             `bson:"lastName"      json:"lastName"`
	Email     string             `bson:"email"         json:"email"`
	Password  string             `bson:"password"      json:"-"`
	Balance   float64            `bson:"balance"       json:"balance"`
	IsAdmin   bool               `bson:"isAdmin"       json:"isAdmin"`
	IsBanned  bool               `bson:"isBanned"      json:"isBanned"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
}
