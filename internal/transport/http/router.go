package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/sda-shop/shop-backend/internal/handlers"
	"github.com/sda-shop/shop-backend/internal/middleware/auth"
)

type Deps struct {
	JWTSecret       []byte
	ProductHandler  *handlers.ProductHandler
	CategoryHandler *handlers.CategoryHandler
	OrderHandler    *handlers.OrderHandler
	UserHandler     *handlers.UserHandler
	AuthHandler     *handlers.AuthHandler
	CheckoutHandler *handlers.CheckoutHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	login := auth.RequireLogin(d.JWTSecret)
	admin := auth.AdminOnly()

	api := e.Group("/api")

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, login, admin)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, login, admin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, login, admin)
	products.GET("/braintree/token", d.CheckoutHandler.ClientToken, login)
	products.POST("/braintree/payment", d.CheckoutHandler.Pay, login)

	categories := api.Group("/categories")
	categories.GET("", d.CategoryHandler.GetCategories)
	categories.GET("/:id", d.CategoryHandler.GetCategory)
	categories.POST("", d.CategoryHandler.CreateCategory, login, admin)
	categories.PUT("/:id", d.CategoryHandler.UpdateCategory, login, admin)
	categories.DELETE("/:id", d.CategoryHandler.DeleteCategory, login, admin)

	orders := api.Group("/orders", login)
	orders.GET("", d.OrderHandler.GetOrdersForUser)
	orders.GET("/all-orders", d.OrderHandler.GetOrdersForAdmin, admin)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder, admin)
	orders.DELETE("/delete-all/:id", d.OrderHandler.DeleteAllUserOrders, admin)
	orders.PUT("/:id", d.OrderHandler.UpdateOrder, admin)

	users := api.Group("/users")
	users.POST("/register", d.UserHandler.Register)
	users.GET("", d.UserHandler.GetUsers, login, admin)
	users.GET("/profile", d.UserHandler.GetProfile, login)
	users.PUT("/profile", d.UserHandler.UpdateProfile, login)
	users.GET("/:id", d.UserHandler.GetUser, login, admin)
	users.DELETE("/:id", d.UserHandler.DeleteUser, login, admin)
	users.PUT("/ban/:id", d.UserHandler.BanUser, login, admin)
	users.PUT("/unban/:id", d.UserHandler.UnbanUser, login, admin)
	users.PUT("/role/:id", d.UserHandler.UpdateRole, login, admin)

	api.POST("/auth/login", d.AuthHandler.Login)
	api.POST("/auth/logout", d.AuthHandler.Logout)

	if d.SearchHandler != nil && d.SearchHandler.ES != nil {
		api.GET("/search", d.SearchHandler.Search)
	}
}
