package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/middleware/auth"
	"github.com/sda-shop/shop-backend/internal/service"
	"github.com/sda-shop/shop-backend/internal/store"
)

type OrderHandler struct {
	Svc *service.OrderService
}

// GetOrdersForAdmin returns one page of all orders.
func (h *OrderHandler) GetOrdersForAdmin(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 0)

	orders, totalPages, currentPage, err := h.Svc.ListAll(c.Request().Context(), page, limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return all orders for the admin", echo.Map{
		"orders":      orders,
		"totalPages":  totalPages,
		"currentPage": currentPage,
	})
}

// GetOrdersForUser returns the calling user's orders.
func (h *OrderHandler) GetOrdersForUser(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Orders are returned", orders)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.Svc.DeleteOrder(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Deleted order with id %s", id.Hex()), nil)
}

func (h *OrderHandler) DeleteAllUserOrders(c echo.Context) error {
	userID, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.Svc.DeleteAllForUser(c.Request().Context(), userID); err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Deleted all user orders successfully", nil)
}

func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed order update: %v", err))
	}
	if req.Status == "" {
		return errorResponse(c, apperr.InvalidInput("provide order status"))
	}

	order, err := h.Svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Updated order status successfully", order)
}
