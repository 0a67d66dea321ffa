package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/mykafka"
	"github.com/sda-shop/shop-backend/internal/payment"
	"github.com/sda-shop/shop-backend/internal/store"
	"github.com/sda-shop/shop-backend/internal/util"
)

// OrderService owns the order lifecycle: placement with stock reservation,
// status transitions, and deletion with compensating inventory and balance
// updates.
type OrderService struct {
	Orders    store.OrderStore
	Users     store.UserStore
	Inventory *InventoryService
	Producer  mykafka.Publisher
	Log       *slog.Logger
}

// ProductSummary and UserSummary are the populated shapes the list endpoints
// return in place of raw object references.
type ProductSummary struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
}

type UserSummary struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
}

type OrderLineView struct {
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
}

type OrderView struct {
	ID        primitive.ObjectID `json:"id"`
	Products  []OrderLineView    `json:"products"`
	Payment   bson.M             `json:"payment"`
	User      UserSummary        `json:"user"`
	Status    models.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// PlaceOrder reserves stock for every line, then persists a pending order
// carrying the gateway result verbatim. If a reservation fails partway, the
// lines already reserved are released again before the error is returned.
func (s *OrderService) PlaceOrder(ctx context.Context, lines []models.OrderLine, pay *payment.Result, userID primitive.ObjectID) (*models.Order, float64, error) {
	if len(lines) == 0 {
		return nil, 0, apperr.InvalidInput("one product at least is required")
	}
	if pay == nil || !pay.Success {
		return nil, 0, apperr.InvalidInput("a successful payment is required")
	}

	var total float64
	for i, line := range lines {
		p, err := s.Inventory.Reserve(ctx, line.Product, line.Quantity)
		if err != nil {
			s.compensate(ctx, lines[:i])
			return nil, 0, err
		}
		total += p.Price * float64(line.Quantity)
	}

	order := &models.Order{
		Products: lines,
		Payment:  bson.M{"success": pay.Success, "transaction": pay.Transaction},
		User:     userID,
		Status:   models.StatusPending,
	}
	if _, err := s.Orders.Insert(ctx, order); err != nil {
		s.compensate(ctx, lines)
		return nil, 0, err
	}

	s.publish(ctx, "order_placed", order.ID.Hex(), map[string]any{
		"type":    "order_placed",
		"orderID": order.ID.Hex(),
		"userID":  userID.Hex(),
		"total":   total,
	})
	return order, total, nil
}

func (s *OrderService) compensate(ctx context.Context, reserved []models.OrderLine) {
	for _, line := range reserved {
		if _, err := s.Inventory.Release(ctx, line.Product, line.Quantity); err != nil {
			s.log().ErrorContext(ctx, "stock release during compensation failed",
				"product", line.Product.Hex(), "quantity", line.Quantity, "error", err)
		}
	}
}

// DeleteOrder removes the order, releases the stock of every line, and
// credits the owning user's balance by the recorded payment amount.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID primitive.ObjectID) error {
	order, err := s.Orders.Remove(ctx, orderID)
	if err != nil {
		return err
	}

	for _, line := range order.Products {
		if _, err := s.Inventory.Release(ctx, line.Product, line.Quantity); err != nil {
			return apperr.ProcessFailed("process of updating product %s ended unsuccessfully: %v", line.Product.Hex(), err)
		}
	}

	amount := PaymentAmount(order.Payment)
	if _, err := s.Users.IncBalance(ctx, order.User, amount); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("user was not found for order %s", orderID.Hex())
		}
		return apperr.ProcessFailed("process of updating user %s ended unsuccessfully: %v", order.User.Hex(), err)
	}

	s.publish(ctx, "order_deleted", orderID.Hex(), map[string]any{
		"type":    "order_deleted",
		"orderID": orderID.Hex(),
		"userID":  order.User.Hex(),
		"refund":  amount,
	})
	return nil
}

// UpdateStatus parses the target status case-insensitively against the five
// recognized tokens and persists it. Any recognized status may be set from
// any other.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, statusToken string) (*models.Order, error) {
	status, err := models.ParseOrderStatus(statusToken)
	if err != nil {
		return nil, err
	}
	return s.Orders.SetStatus(ctx, orderID, status)
}

// DeleteAllForUser deletes every order of the user through the single-order
// path, so each one gets the same compensating inventory and balance
// updates. Per-order failures are logged and the remaining orders still get
// processed.
func (s *OrderService) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) error {
	orders, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range orders {
		if err := s.DeleteOrder(ctx, o.ID); err != nil {
			failed++
			s.log().ErrorContext(ctx, "order deletion during bulk delete failed",
				"order", o.ID.Hex(), "user", userID.Hex(), "error", err)
		}
	}
	if failed > 0 {
		return apperr.ProcessFailed("%d of %d orders could not be deleted for user %s", failed, len(orders), userID.Hex())
	}
	return nil
}

// ListAll returns one admin page of orders with populated product and user
// summaries.
func (s *OrderService) ListAll(ctx context.Context, page, limit int) ([]OrderView, int64, int, error) {
	_, count, err := s.Orders.ListAll(ctx, 0, 0)
	if err != nil {
		return nil, 0, 0, err
	}
	skip, totalPages, currentPage := util.Paginate(page, limit, count)

	orders, _, err := s.Orders.ListAll(ctx, skip, int64(limit))
	if err != nil {
		return nil, 0, 0, err
	}
	if len(orders) == 0 {
		return nil, 0, 0, apperr.NotFound("there are no orders found")
	}

	views, err := s.populate(ctx, orders)
	if err != nil {
		return nil, 0, 0, err
	}
	return views, totalPages, currentPage, nil
}

// ListForUser returns the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]OrderView, error) {
	orders, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperr.NotFound("this user has no orders yet")
	}
	return s.populate(ctx, orders)
}

func (s *OrderService) populate(ctx context.Context, orders []models.Order) ([]OrderView, error) {
	productIDs := map[primitive.ObjectID]struct{}{}
	userIDs := map[primitive.ObjectID]struct{}{}
	for _, o := range orders {
		userIDs[o.User] = struct{}{}
		for _, line := range o.Products {
			productIDs[line.Product] = struct{}{}
		}
	}

	products, err := s.Inventory.Products.FindByIDs(ctx, keys(productIDs))
	if err != nil {
		return nil, err
	}
	users, err := s.Users.FindByIDs(ctx, keys(userIDs))
	if err != nil {
		return nil, err
	}

	productByID := map[primitive.ObjectID]ProductSummary{}
	for _, p := range products {
		productByID[p.ID] = ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price, Description: p.Description, Image: p.Image}
	}
	userByID := map[primitive.ObjectID]UserSummary{}
	for _, u := range users {
		userByID[u.ID] = UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
	}

	views := make([]OrderView, len(orders))
	for i, o := range orders {
		lines := make([]OrderLineView, len(o.Products))
		for j, line := range o.Products {
			summary := productByID[line.Product]
			summary.ID = line.Product
			lines[j] = OrderLineView{Product: summary, Quantity: line.Quantity}
		}
		views[i] = OrderView{
			ID:        o.ID,
			Products:  lines,
			Payment:   o.Payment,
			User:      userByID[o.User],
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		}
	}
	return views, nil
}

func keys(set map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// PaymentAmount digs the transaction amount out of the opaque gateway
// payload. Gateways report amounts as strings or numbers depending on the
// settlement path.
func PaymentAmount(pay bson.M) float64 {
	tx, ok := pay["transaction"].(bson.M)
	if !ok {
		if m, ok2 := pay["transaction"].(map[string]any); ok2 {
			tx = bson.M(m)
		} else {
			return 0
		}
	}
	switch v := tx["amount"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (s *OrderService) publish(ctx context.Context, event, key string, payload map[string]any) {
	if s.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, "order_events", key, payload); err != nil {
		s.log().ErrorContext(ctx, "kafka publish error", "event", event, "error", err)
	}
}

func (s *OrderService) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
