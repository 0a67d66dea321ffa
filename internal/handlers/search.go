package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/service/search"
	"github.com/sda-shop/shop-backend/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return errorResponse(c, apperr.InvalidInput("query parameter q is required"))
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	if size <= 0 || size > 100 {
		size = util.DefaultPageSize
	}
	from := (page - 1) * size
	if from < 0 {
		from = 0
	}

	total, products, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, size)
	if err != nil {
		return errorResponse(c, apperr.Upstream("search failed: %v", err))
	}
	return respond(c, http.StatusOK, "Return matching products", echo.Map{
		"total":    total,
		"products": products,
	})
}
