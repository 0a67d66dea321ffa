package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/imagehost"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/mykafka"
	"github.com/sda-shop/shop-backend/internal/service/search"
	"github.com/sda-shop/shop-backend/internal/store"
	"github.com/sda-shop/shop-backend/internal/util"
)

type ProductHandler struct {
	Products store.ProductStore
	Images   imagehost.Host
	Producer mykafka.Publisher
	ES       *elasticsearch.Client
	ESIndex  string
	Log      *slog.Logger
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	q := store.ProductQuery{
		Search:   c.QueryParam("search"),
		Sort:     c.QueryParam("sort"),
		MinPrice: parseFloatDefault(c.QueryParam("minPrice"), 0),
		MaxPrice: parseFloatDefault(c.QueryParam("maxPrice"), 0),
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		Limit:    parseIntDefault(c.QueryParam("limit"), 0),
	}
	if raw := c.QueryParam("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := store.ParseID(strings.TrimSpace(part))
			if err != nil {
				return errorResponse(c, err)
			}
			q.Categories = append(q.Categories, id)
		}
	}

	ctx := c.Request().Context()
	// count first so the requested page can be clamped into range
	_, count, err := h.Products.List(ctx, store.ProductQuery{Search: q.Search, Categories: q.Categories, MinPrice: q.MinPrice, MaxPrice: q.MaxPrice})
	if err != nil {
		return errorResponse(c, err)
	}
	_, totalPages, currentPage := util.Paginate(q.Page, q.Limit, count)
	q.Page = currentPage

	products, _, err := h.Products.List(ctx, q)
	if err != nil {
		return errorResponse(c, err)
	}

	return respond(c, http.StatusOK, "Return all products", echo.Map{
		"products":    products,
		"totalPages":  totalPages,
		"currentPage": currentPage,
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	product, err := h.Products.FindByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return respond(c, http.StatusOK, "Return a single product", product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.bindProduct(c, &models.Product{})
	if err != nil {
		return errorResponse(c, err)
	}

	exists, err := h.Products.ExistsByName(ctx, product.Name)
	if err != nil {
		return errorResponse(c, err)
	}
	if exists {
		return errorResponse(c, apperr.Conflict("product already exists with name %q", product.Name))
	}

	imagePath, cleanup, err := h.receiveImage(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if imagePath == "" {
		return errorResponse(c, apperr.InvalidInput("provide an image please"))
	}
	defer cleanup()

	url, err := h.Images.Upload(ctx, imagePath)
	if err != nil {
		return errorResponse(c, err)
	}
	product.Image = url

	if _, err := h.Products.Insert(ctx, product); err != nil {
		return errorResponse(c, err)
	}

	h.syncIndex(c, product)
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID.Hex(),
		"name":      product.Name,
	})

	return respond(c, http.StatusCreated, "Created a new product", product)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	product, err := h.Products.FindByID(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}
	originalImage := product.Image

	if _, err := h.bindProduct(c, product); err != nil {
		return errorResponse(c, err)
	}

	imagePath, cleanup, err := h.receiveImage(c)
	if err != nil {
		return errorResponse(c, err)
	}
	defer cleanup()

	if imagePath != "" {
		url, err := h.Images.Upload(ctx, imagePath)
		if err != nil {
			return errorResponse(c, err)
		}
		product.Image = url
	}

	if err := h.Products.Replace(ctx, product); err != nil {
		return errorResponse(c, err)
	}

	if imagePath != "" && originalImage != "" {
		if err := h.Images.Destroy(ctx, originalImage); err != nil {
			h.log().WarnContext(ctx, "old image asset not deleted", "url", originalImage, "error", err)
		}
	}

	h.syncIndex(c, product)
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID.Hex(),
		"name":      product.Name,
	})

	return respond(c, http.StatusOK, "Update a single product", product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	product, err := h.Products.FindByID(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.Products.Delete(ctx, id); err != nil {
		return errorResponse(c, err)
	}

	if product.Image != "" {
		if err := h.Images.Destroy(ctx, product.Image); err != nil {
			return errorResponse(c, apperr.Upstream("failed to delete image asset: %v", err))
		}
	}

	h.deindex(c, id)
	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id.Hex(),
	})

	return respond(c, http.StatusOK, fmt.Sprintf("Delete a single product with ID: %s", id.Hex()), nil)
}

// bindProduct reads the multipart form fields shared by create and update
// into dst.
func (h *ProductHandler) bindProduct(c echo.Context, dst *models.Product) (*models.Product, error) {
	name := c.FormValue("name")
	if name != "" {
		dst.Name = name
	}
	if dst.Name == "" {
		return nil, apperr.InvalidInput("product name is required")
	}

	if raw := c.FormValue("price"); raw != "" {
		dst.Price = parseFloatDefault(raw, -1)
	}
	if dst.Price < 0 {
		return nil, apperr.InvalidInput("price must be >= 0")
	}

	if raw := c.FormValue("quantity"); raw != "" {
		dst.Quantity = parseIntDefault(raw, -1)
	}
	if dst.Quantity < 0 {
		return nil, apperr.InvalidInput("quantity must be >= 0")
	}

	if raw := c.FormValue("description"); raw != "" {
		dst.Description = raw
	}
	if raw := c.FormValue("sizes"); raw != "" {
		dst.Sizes = splitTrim(raw)
	}
	if raw := c.FormValue("variants"); raw != "" {
		dst.Variants = splitTrim(raw)
	}
	if raw := c.FormValue("categories"); raw != "" {
		dst.Categories = dst.Categories[:0]
		for _, part := range splitTrim(raw) {
			id, err := store.ParseID(part)
			if err != nil {
				return nil, err
			}
			dst.Categories = append(dst.Categories, id)
		}
	}
	return dst, nil
}

// receiveImage spools the uploaded file to a temp path for the image host.
// The cleanup func removes the spool file and is safe to call when no file
// was sent.
func (h *ProductHandler) receiveImage(c echo.Context) (string, func(), error) {
	nop := func() {}

	fh, err := c.FormFile("image")
	if err != nil {
		return "", nop, nil // no file in the form
	}

	src, err := fh.Open()
	if err != nil {
		return "", nop, apperr.InvalidInput("cannot read image upload: %v", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", nop, err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nop, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nop, err
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func (h *ProductHandler) syncIndex(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.Index(ctx, h.ES, h.ESIndex, p); err != nil {
		h.log().ErrorContext(ctx, "product index sync failed", "productID", p.ID.Hex(), "error", err)
	}
}

func (h *ProductHandler) deindex(c echo.Context, id primitive.ObjectID) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.Deindex(ctx, h.ES, h.ESIndex, id.Hex()); err != nil {
		h.log().ErrorContext(ctx, "product deindex failed", "productID", id.Hex(), "error", err)
	}
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		h.log().ErrorContext(ctx, "kafka publish error", "error", err)
	}
}

func (h *ProductHandler) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func splitTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
