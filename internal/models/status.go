package models

import (
	"strings"

	"github.com/sda-shop/shop-backend/internal/apperr"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusShipping  OrderStatus = "shipping"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCanceled  OrderStatus = "canceled"
)

// ParseOrderStatus recognizes the five status tokens case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(s)) {
	case StatusPending:
		return StatusPending, nil
	case StatusShipping:
		return StatusShipping, nil
	case StatusShipped:
		return StatusShipped, nil
	case StatusDelivered:
		return StatusDelivered, nil
	case StatusCanceled:
		return StatusCanceled, nil
	default:
		return "", apperr.InvalidInput("invalid order status %q", s)
	}
}
