package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/apperr"
)

// Response is the wire shape every endpoint answers with.
type Response struct {
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

func respond(c echo.Context, code int, message string, payload any) error {
	return c.JSON(code, Response{Message: message, Payload: payload})
}

func errorResponse(c echo.Context, err error) error {
	return c.JSON(apperr.Status(err), Response{Message: err.Error()})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}
