package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/store"
)

type CategoryHandler struct {
	Categories store.CategoryStore
	Products   store.ProductStore
}

func (h *CategoryHandler) GetCategories(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 0)

	categories, totalPages, err := h.Categories.List(c.Request().Context(), page, limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return all categories", echo.Map{
		"categories": categories,
		"totalPages": totalPages,
	})
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	category, err := h.Categories.FindByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return a single category", category)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed category: %v", err))
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errorResponse(c, apperr.InvalidInput("category name is required"))
	}

	ctx := c.Request().Context()
	exists, err := h.Categories.ExistsByName(ctx, req.Name)
	if err != nil {
		return errorResponse(c, err)
	}
	if exists {
		return errorResponse(c, apperr.Conflict("category already exist with this name: %s", req.Name))
	}

	category := &models.Category{Name: req.Name}
	if _, err := h.Categories.Insert(ctx, category); err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusCreated, "Created a new category", category)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.InvalidInput("malformed category: %v", err))
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errorResponse(c, apperr.InvalidInput("category name is required"))
	}

	category, err := h.Categories.Rename(c.Request().Context(), id, req.Name)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Update a single category", category)
}

// DeleteCategory refuses to remove a category while any product still
// references it.
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	ctx := c.Request().Context()
	inUse, err := h.Products.AnyWithCategory(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}
	if inUse {
		return errorResponse(c, apperr.Conflict("there are products exists under this category"))
	}

	if err := h.Categories.Delete(ctx, id); err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Delete a single category", nil)
}
