package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/store"
)

// InventoryService keeps product quantity and sold counters in lockstep with
// order placement and reversal. Both operations delegate to a conditional
// store update, so a reservation that would oversell simply does not match
// and nothing is mutated.
type InventoryService struct {
	Products store.ProductStore
}

func (s *InventoryService) Reserve(ctx context.Context, productID primitive.ObjectID, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, apperr.InvalidInput("quantity must be positive, got %d", qty)
	}
	return s.Products.Reserve(ctx, productID, qty)
}

func (s *InventoryService) Release(ctx context.Context, productID primitive.ObjectID, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, apperr.InvalidInput("quantity must be positive, got %d", qty)
	}
	return s.Products.Release(ctx, productID, qty)
}
