package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/hash"
	"github.com/sda-shop/shop-backend/internal/middleware/auth"
	"github.com/sda-shop/shop-backend/internal/mykafka"
	"github.com/sda-shop/shop-backend/internal/store"
)

type AuthHandler struct {
	Users     store.UserStore
	JWTSecret []byte
	Producer  mykafka.Publisher
	Log       *slog.Logger
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed login request: %v", err))
	}

	user, err := h.Users.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if !hash.CheckPassword(user.Password, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if user.IsBanned {
		return echo.NewHTTPError(http.StatusForbidden, "this account is banned")
	}

	token, err := auth.SignAccessToken(user.ID, user.IsAdmin, h.JWTSecret)
	if err != nil {
		return errorResponse(c, err)
	}
	c.SetCookie(auth.CreateCookie("accessToken", token, "/", time.Now().Add(auth.AccessTokenTTL)))

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID.Hex(),
		"email":  user.Email,
	})

	return respond(c, http.StatusOK, "Logged in successfully", echo.Map{
		"accessToken": token,
		"isAdmin":     user.IsAdmin,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(auth.CreateCookie("accessToken", "", "/", expired))
	return respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		h.log().ErrorContext(ctx, "kafka publish error", "error", err)
	}
}

func (h *AuthHandler) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}
