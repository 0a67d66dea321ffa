package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/service"
	"github.com/sda-shop/shop-backend/internal/store/memory"
)

func newUserHandler(mem *memory.Store) *UserHandler {
	inventory := &service.InventoryService{Products: mem.Products}
	return &UserHandler{
		Users:  mem.Users,
		Orders: mem.Orders,
		OrderSvc: &service.OrderService{
			Orders:    mem.Orders,
			Users:     mem.Users,
			Inventory: inventory,
		},
	}
}

func TestRegister(t *testing.T) {
	mem := memory.New()
	h := newUserHandler(mem)
	e := echo.New()

	body := map[string]string{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "Jane.Doe@Example.com",
		"password":  "secret123",
	}
	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/users/register", body)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret123")

	// stored lowercased, so the duplicate check is case insensitive
	stored, err := mem.Users.FindByEmail(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "secret123", stored.Password)

	rec, c = doJSONRequest(t, e, http.MethodPost, "/api/users/register", body)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	mem := memory.New()
	h := newUserHandler(mem)
	e := echo.New()

	cases := []map[string]string{
		{"firstName": "", "lastName": "Doe", "email": "a@b.com", "password": "secret123"},
		{"firstName": "Jane", "lastName": "Doe", "email": "not-an-email", "password": "secret123"},
		{"firstName": "Jane", "lastName": "Doe", "email": "a@b.com", "password": "short"},
	}
	for _, body := range cases {
		rec, c := doJSONRequest(t, e, http.MethodPost, "/api/users/register", body)
		require.NoError(t, h.Register(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateRolePromotionRefusedWithOrders(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	h := newUserHandler(mem)
	e := echo.New()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "x"}
	_, err := mem.Users.Insert(ctx, user)
	require.NoError(t, err)
	_, err = mem.Orders.Insert(ctx, &models.Order{
		User:   user.ID,
		Status: models.StatusPending,
		Products: []models.OrderLine{
			{Product: primitive.NewObjectID(), Quantity: 1},
		},
	})
	require.NoError(t, err)

	rec, c := doJSONRequest(t, e, http.MethodPut, "/api/users/role/"+user.ID.Hex(), map[string]bool{"isAdmin": true})
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	require.NoError(t, h.UpdateRole(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	refreshed, err := mem.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, refreshed.IsAdmin)

	// demotion is never blocked by order history
	rec, c = doJSONRequest(t, e, http.MethodPut, "/api/users/role/"+user.ID.Hex(), map[string]bool{"isAdmin": false})
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	require.NoError(t, h.UpdateRole(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateRolePromotionWithoutOrders(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	h := newUserHandler(mem)
	e := echo.New()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "x"}
	_, err := mem.Users.Insert(ctx, user)
	require.NoError(t, err)

	rec, c := doJSONRequest(t, e, http.MethodPut, "/api/users/role/"+user.ID.Hex(), map[string]bool{"isAdmin": true})
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	require.NoError(t, h.UpdateRole(c))
	require.Equal(t, http.StatusOK, rec.Code)

	refreshed, err := mem.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, refreshed.IsAdmin)
}

func TestDeleteUserCleansUpOrders(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	h := newUserHandler(mem)
	e := echo.New()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "x"}
	_, err := mem.Users.Insert(ctx, user)
	require.NoError(t, err)

	product := &models.Product{Name: "sneaker", Price: 20, Quantity: 5}
	_, err = mem.Products.Insert(ctx, product)
	require.NoError(t, err)
	_, err = mem.Products.Reserve(ctx, product.ID, 2)
	require.NoError(t, err)
	_, err = mem.Orders.Insert(ctx, &models.Order{
		User:     user.ID,
		Status:   models.StatusPending,
		Products: []models.OrderLine{{Product: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	rec, c := doJSONRequest(t, e, http.MethodDelete, "/api/users/"+user.ID.Hex(), nil)
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	require.NoError(t, h.DeleteUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = mem.Users.FindByID(ctx, user.ID)
	require.Error(t, err)
	orders, err := mem.Orders.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, orders)

	restocked, err := mem.Products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 5, restocked.Quantity)
	require.Equal(t, 0, restocked.Sold)
}

func TestBanAndUnbanUser(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	h := newUserHandler(mem)
	e := echo.New()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "x"}
	_, err := mem.Users.Insert(ctx, user)
	require.NoError(t, err)

	rec, c := doJSONRequest(t, e, http.MethodPut, "/api/users/ban/"+user.ID.Hex(), nil)
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	require.NoError(t, h.BanUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	banned, err := mem.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, banned.IsBanned)

	rec, c = doJSONRequest(t, e, http.MethodPut, "/api/users/unban/"+user.ID.Hex(), nil)
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	require.NoError(t, h.UnbanUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	unbanned, err := mem.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, unbanned.IsBanned)
}
