package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/service"
	"github.com/sda-shop/shop-backend/internal/store/memory"
)

func newOrderHandler(mem *memory.Store) *OrderHandler {
	return &OrderHandler{Svc: &service.OrderService{
		Orders:    mem.Orders,
		Users:     mem.Users,
		Inventory: &service.InventoryService{Products: mem.Products},
	}}
}

func TestUpdateOrderStatus(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	h := newOrderHandler(mem)
	e := echo.New()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "x"}
	_, err := mem.Users.Insert(ctx, user)
	require.NoError(t, err)
	order := &models.Order{User: user.ID, Status: models.StatusPending}
	_, err = mem.Orders.Insert(ctx, order)
	require.NoError(t, err)

	rec, c := doJSONRequest(t, e, http.MethodPut, "/api/orders/"+order.ID.Hex(), map[string]string{"status": "Shipped"})
	c.SetParamNames("id")
	c.SetParamValues(order.ID.Hex())
	require.NoError(t, h.UpdateOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	updated, err := mem.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusShipped, updated.Status)

	// unknown token is rejected and the order keeps its status
	rec, c = doJSONRequest(t, e, http.MethodPut, "/api/orders/"+order.ID.Hex(), map[string]string{"status": "returned"})
	c.SetParamNames("id")
	c.SetParamValues(order.ID.Hex())
	require.NoError(t, h.UpdateOrder(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, c = doJSONRequest(t, e, http.MethodPut, "/api/orders/"+order.ID.Hex(), map[string]string{"status": ""})
	c.SetParamNames("id")
	c.SetParamValues(order.ID.Hex())
	require.NoError(t, h.UpdateOrder(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	unchanged, err := mem.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusShipped, unchanged.Status)
}

func TestGetOrdersForUser(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	h := newOrderHandler(mem)
	e := echo.New()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "x"}
	_, err := mem.Users.Insert(ctx, user)
	require.NoError(t, err)
	product := &models.Product{Name: "sneaker", Price: 20, Quantity: 5}
	_, err = mem.Products.Insert(ctx, product)
	require.NoError(t, err)
	_, err = mem.Orders.Insert(ctx, &models.Order{
		User:     user.ID,
		Status:   models.StatusPending,
		Products: []models.OrderLine{{Product: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/orders", nil)
	c.Set("userID", user.ID)
	require.NoError(t, h.GetOrdersForUser(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "sneaker")
	require.Contains(t, rec.Body.String(), "jane@example.com")

	// a user without orders gets NotFound
	other := &models.User{FirstName: "John", LastName: "Doe", Email: "john@example.com", Password: "x"}
	_, err = mem.Users.Insert(ctx, other)
	require.NoError(t, err)
	rec, c = doJSONRequest(t, e, http.MethodGet, "/api/orders", nil)
	c.Set("userID", other.ID)
	require.NoError(t, h.GetOrdersForUser(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrdersForUserWithoutAuthContext(t *testing.T) {
	mem := memory.New()
	h := newOrderHandler(mem)
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodGet, "/api/orders", nil)
	err := h.GetOrdersForUser(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Code)
}
