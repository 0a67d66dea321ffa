package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/payment"
	"github.com/sda-shop/shop-backend/internal/store/memory"
)

type orderEnv struct {
	mem *memory.Store
	svc *OrderService
}

func newOrderEnv(t *testing.T) *orderEnv {
	t.Helper()
	mem := memory.New()
	inv := &InventoryService{Products: mem.Products}
	return &orderEnv{
		mem: mem,
		svc: &OrderService{
			Orders:    mem.Orders,
			Users:     mem.Users,
			Inventory: inv,
		},
	}
}

func (env *orderEnv) addProduct(t *testing.T, name string, price float64, quantity int) primitive.ObjectID {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Quantity: quantity}
	_, err := env.mem.Products.Insert(context.Background(), p)
	require.NoError(t, err)
	return p.ID
}

func (env *orderEnv) addUser(t *testing.T, email string) primitive.ObjectID {
	t.Helper()
	u := &models.User{FirstName: "test", LastName: "user", Email: email, Password: "hash"}
	_, err := env.mem.Users.Insert(context.Background(), u)
	require.NoError(t, err)
	return u.ID
}

func paidResult(amount float64) *payment.Result {
	return &payment.Result{
		Success:     true,
		Transaction: map[string]any{"id": "txn_test", "amount": amount},
	}
}

func TestPlaceOrderReservesStockAndCreatesPendingOrder(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	productID := env.addProduct(t, "shirt", 15, 10)
	userID := env.addUser(t, "buyer@example.com")

	order, total, err := env.svc.PlaceOrder(ctx,
		[]models.OrderLine{{Product: productID, Quantity: 3}},
		paidResult(45), userID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, order.Status)
	require.Equal(t, 45.0, total)
	require.Equal(t, userID, order.User)

	p, err := env.mem.Products.FindByID(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, 7, p.Quantity)
	require.Equal(t, 3, p.Sold)
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newOrderEnv(t)
	userID := env.addUser(t, "buyer@example.com")

	_, _, err := env.svc.PlaceOrder(context.Background(), nil, paidResult(1), userID)
	require.True(t, errors.Is(err, apperr.ErrInvalidInput))

	productID := env.addProduct(t, "shirt", 15, 10)
	_, _, err = env.svc.PlaceOrder(context.Background(),
		[]models.OrderLine{{Product: productID, Quantity: 1}},
		&payment.Result{Success: false}, userID)
	require.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestPlaceOrderCompensatesOnPartialFailure(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	first := env.addProduct(t, "shirt", 15, 10)
	second := env.addProduct(t, "hat", 5, 1)
	userID := env.addUser(t, "buyer@example.com")

	_, _, err := env.svc.PlaceOrder(ctx, []models.OrderLine{
		{Product: first, Quantity: 3},
		{Product: second, Quantity: 2}, // only 1 in stock
	}, paidResult(55), userID)
	require.True(t, errors.Is(err, apperr.ErrInsufficientStock))

	// the first reservation was rolled back
	p, err := env.mem.Products.FindByID(ctx, first)
	require.NoError(t, err)
	require.Equal(t, 10, p.Quantity)
	require.Equal(t, 0, p.Sold)

	// nothing was persisted
	orders, err := env.mem.Orders.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestDeleteOrderRestoresStockAndCreditsBalance(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	productID := env.addProduct(t, "shirt", 15, 10)
	userID := env.addUser(t, "buyer@example.com")

	order, _, err := env.svc.PlaceOrder(ctx,
		[]models.OrderLine{{Product: productID, Quantity: 3}},
		paidResult(45), userID)
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteOrder(ctx, order.ID))

	p, err := env.mem.Products.FindByID(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, 10, p.Quantity)
	require.Equal(t, 0, p.Sold)

	u, err := env.mem.Users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 45.0, u.Balance)

	_, err = env.mem.Orders.FindByID(ctx, order.ID)
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDeleteOrderMissing(t *testing.T) {
	env := newOrderEnv(t)
	err := env.svc.DeleteOrder(context.Background(), primitive.NewObjectID())
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUpdateStatus(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	productID := env.addProduct(t, "shirt", 15, 10)
	userID := env.addUser(t, "buyer@example.com")

	order, _, err := env.svc.PlaceOrder(ctx,
		[]models.OrderLine{{Product: productID, Quantity: 1}},
		paidResult(15), userID)
	require.NoError(t, err)

	updated, err := env.svc.UpdateStatus(ctx, order.ID, "Shipping")
	require.NoError(t, err)
	require.Equal(t, models.StatusShipping, updated.Status)

	_, err = env.svc.UpdateStatus(ctx, order.ID, "returned")
	require.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = env.svc.UpdateStatus(ctx, primitive.NewObjectID(), "shipped")
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDeleteAllForUserCompensatesEveryOrder(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	productID := env.addProduct(t, "shirt", 15, 10)
	userID := env.addUser(t, "buyer@example.com")

	for i := 0; i < 2; i++ {
		_, _, err := env.svc.PlaceOrder(ctx,
			[]models.OrderLine{{Product: productID, Quantity: 2}},
			paidResult(30), userID)
		require.NoError(t, err)
	}

	p, err := env.mem.Products.FindByID(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, 6, p.Quantity)

	require.NoError(t, env.svc.DeleteAllForUser(ctx, userID))

	p, err = env.mem.Products.FindByID(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, 10, p.Quantity)
	require.Equal(t, 0, p.Sold)

	u, err := env.mem.Users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 60.0, u.Balance)

	orders, err := env.mem.Orders.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestListForUserPopulatesSummaries(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	productID := env.addProduct(t, "shirt", 15, 10)
	userID := env.addUser(t, "buyer@example.com")

	_, _, err := env.svc.PlaceOrder(ctx,
		[]models.OrderLine{{Product: productID, Quantity: 1}},
		paidResult(15), userID)
	require.NoError(t, err)

	views, err := env.svc.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "shirt", views[0].Products[0].Product.Name)
	require.Equal(t, "buyer@example.com", views[0].User.Email)

	_, err = env.svc.ListForUser(ctx, primitive.NewObjectID())
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestPaymentAmount(t *testing.T) {
	require.Equal(t, 42.5, PaymentAmount(bson.M{"transaction": map[string]any{"amount": 42.5}}))
	require.Equal(t, 42.5, PaymentAmount(bson.M{"transaction": bson.M{"amount": "42.50"}}))
	require.Equal(t, 7.0, PaymentAmount(bson.M{"transaction": bson.M{"amount": int32(7)}}))
	require.Equal(t, 0.0, PaymentAmount(bson.M{}))
	require.Equal(t, 0.0, PaymentAmount(bson.M{"transaction": bson.M{"amount": "oops"}}))
}
