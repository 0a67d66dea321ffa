package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/middleware/auth"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/payment"
	"github.com/sda-shop/shop-backend/internal/service"
	"github.com/sda-shop/shop-backend/internal/store"
)

// CheckoutHandler exposes the gateway token endpoint and turns a paid cart
// into an order.
type CheckoutHandler struct {
	Gateway  payment.Gateway
	OrderSvc *service.OrderService
}

func (h *CheckoutHandler) ClientToken(c echo.Context) error {
	token, err := h.Gateway.ClientToken(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return a client token", echo.Map{"clientToken": token})
}

type checkoutRequest struct {
	Nonce       string  `json:"nonce"`
	TotalAmount float64 `json:"totalAmount"`
	CartItems   []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"cartItems"`
}

func (h *CheckoutHandler) Pay(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed checkout request: %v", err))
	}
	if len(req.CartItems) == 0 {
		return errorResponse(c, apperr.InvalidInput("one product at least is required"))
	}
	if req.Nonce == "" {
		return errorResponse(c, apperr.InvalidInput("payment nonce is required"))
	}

	lines := make([]models.OrderLine, len(req.CartItems))
	for i, item := range req.CartItems {
		productID, err := store.ParseID(item.Product)
		if err != nil {
			return errorResponse(c, err)
		}
		if item.Quantity <= 0 {
			return errorResponse(c, apperr.InvalidInput("product quantity is required"))
		}
		lines[i] = models.OrderLine{Product: productID, Quantity: item.Quantity}
	}

	ctx := c.Request().Context()
	result, err := h.Gateway.Sale(ctx, req.TotalAmount, req.Nonce)
	if err != nil {
		return errorResponse(c, err)
	}

	order, total, err := h.OrderSvc.PlaceOrder(ctx, lines, result, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return respond(c, http.StatusCreated, "Order placed successfully", echo.Map{
		"order": order,
		"total": total,
	})
}
