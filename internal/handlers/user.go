package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/hash"
	"github.com/sda-shop/shop-backend/internal/middleware/auth"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/mykafka"
	"github.com/sda-shop/shop-backend/internal/service"
	"github.com/sda-shop/shop-backend/internal/store"
)

type UserHandler struct {
	Users    store.UserStore
	Orders   store.OrderStore
	OrderSvc *service.OrderService
	Producer mykafka.Publisher
	Log      *slog.Logger
}

// GetUsers is the admin listing: regex search over names and email, role
// and ban filters, name sort.
func (h *UserHandler) GetUsers(c echo.Context) error {
	q := store.UserQuery{
		Search:   c.QueryParam("search"),
		SortDesc: c.QueryParam("sort") == "desc",
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		Limit:    parseIntDefault(c.QueryParam("limit"), 0),
	}
	if raw := c.QueryParam("isAdmin"); raw != "" {
		v := raw == "true"
		q.IsAdmin = &v
	}
	if raw := c.QueryParam("isBanned"); raw != "" {
		v := raw == "true"
		q.IsBanned = &v
	}

	users, count, err := h.Users.List(c.Request().Context(), q)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return all users", echo.Map{
		"users": users,
		"total": count,
	})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	user, err := h.Users.FindByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return a single user", user)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	user, err := h.Users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return the user profile", user)
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed user: %v", err))
	}
	if err := validateRegistration(&req); err != nil {
		return errorResponse(c, err)
	}

	ctx := c.Request().Context()
	exists, err := h.Users.EmailExists(ctx, req.Email, nil)
	if err != nil {
		return errorResponse(c, err)
	}
	if exists {
		return errorResponse(c, apperr.Conflict("this email is already exists"))
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, err)
	}
	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  hashed,
	}
	if _, err := h.Users.Insert(ctx, user); err != nil {
		return errorResponse(c, err)
	}

	h.publish(c, map[string]any{
		"type":   "user_registered",
		"userID": user.ID.Hex(),
		"email":  user.Email,
	})

	user.Password = ""
	return respond(c, http.StatusCreated, "Created a new user", user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed user: %v", err))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx := c.Request().Context()
	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Email != "" && req.Email != user.Email {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return errorResponse(c, apperr.InvalidInput("invalid email address"))
		}
		taken, err := h.Users.EmailExists(ctx, req.Email, &userID)
		if err != nil {
			return errorResponse(c, err)
		}
		if taken {
			return errorResponse(c, apperr.Conflict("this email is already exists"))
		}
		user.Email = req.Email
	}
	if req.Password != "" {
		hashed, err := hash.HashPassword(req.Password)
		if err != nil {
			return errorResponse(c, err)
		}
		user.Password = hashed
	}

	if err := h.Users.Update(ctx, user); err != nil {
		return errorResponse(c, err)
	}
	user.Password = ""
	return respond(c, http.StatusOK, "Updated the user profile", user)
}

// DeleteUser removes the user's orders through the order lifecycle first, so
// stock and balances stay consistent, then deletes the user record.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	ctx := c.Request().Context()
	if err := h.OrderSvc.DeleteAllForUser(ctx, id); err != nil {
		return errorResponse(c, err)
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Deleted user with id %s", id.Hex()), nil)
}

// UpdateRole promotes or demotes a user. Promotion is refused while the user
// has orders on record.
func (h *UserHandler) UpdateRole(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	var req struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed role update: %v", err))
	}

	ctx := c.Request().Context()
	if req.IsAdmin {
		hasOrders, err := h.Orders.AnyForUser(ctx, id)
		if err != nil {
			return errorResponse(c, err)
		}
		if hasOrders {
			return errorResponse(c, apperr.Conflict("this user does not meet the promotion condition"))
		}
	}

	user, err := h.Users.SetAdmin(ctx, id, req.IsAdmin)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Updated the user role", user)
}

func (h *UserHandler) BanUser(c echo.Context) error {
	return h.setBanned(c, true, "Banned the user")
}

func (h *UserHandler) UnbanUser(c echo.Context) error {
	return h.setBanned(c, false, "Unbanned the user")
}

func (h *UserHandler) setBanned(c echo.Context, banned bool, message string) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	user, err := h.Users.SetBanned(c.Request().Context(), id, banned)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, message, user)
}

func validateRegistration(req *registerRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" {
		return apperr.InvalidInput("first and last name are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperr.InvalidInput("invalid email address")
	}
	if len(req.Password) < 6 {
		return apperr.InvalidInput("password must be at least 6 characters")
	}
	return nil
}

func (h *UserHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		h.log().ErrorContext(ctx, "kafka publish error", "error", err)
	}
}

func (h *UserHandler) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}
