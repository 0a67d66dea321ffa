package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sda-shop/shop-backend/internal/config"
	"github.com/sda-shop/shop-backend/internal/es"
	"github.com/sda-shop/shop-backend/internal/handlers"
	"github.com/sda-shop/shop-backend/internal/imagehost"
	"github.com/sda-shop/shop-backend/internal/logging"
	"github.com/sda-shop/shop-backend/internal/mykafka"
	"github.com/sda-shop/shop-backend/internal/payment"
	"github.com/sda-shop/shop-backend/internal/service"
	"github.com/sda-shop/shop-backend/internal/store"
	httpserver "github.com/sda-shop/shop-backend/internal/transport/http"
)

const productIndex = "product"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	st, err := store.Connect(context.Background(), configuration.MONGO_URL, configuration.MONGO_DB)
	if err != nil {
		log.Fatalf("store init error: %v", err)
	}

	var producer mykafka.Publisher = mykafka.NopPublisher{}
	if configuration.KAFKA_ADDRESS != "" {
		p, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatal(err)
		}
		producer = p
	}

	searchHandler := &handlers.SearchHandler{Index: productIndex}
	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		searchHandler.ES = client
	}

	gateway := payment.NewClient(
		"https://api.sandbox.braintreegateway.com",
		configuration.BRAINTREE_MERCHANT_ID,
		configuration.BRAINTREE_PUBLIC_KEY,
		configuration.BRAINTREE_PRIVATE_KEY,
	)
	images := imagehost.NewClient(
		"https://api.cloudinary.com",
		configuration.CLOUDINARY_NAME,
		configuration.CLOUDINARY_KEY,
		configuration.CLOUDINARY_SECRET,
	)

	inventory := &service.InventoryService{Products: st.Products}
	orderSvc := &service.OrderService{
		Orders:    st.Orders,
		Users:     st.Users,
		Inventory: inventory,
		Producer:  producer,
		Log:       logger,
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		JWTSecret: jwtSecret,
		ProductHandler: &handlers.ProductHandler{
			Products: st.Products,
			Images:   images,
			Producer: producer,
			ES:       searchHandler.ES,
			ESIndex:  productIndex,
			Log:      logger,
		},
		CategoryHandler: &handlers.CategoryHandler{Categories: st.Categories, Products: st.Products},
		OrderHandler:    &handlers.OrderHandler{Svc: orderSvc},
		UserHandler: &handlers.UserHandler{
			Users:    st.Users,
			Orders:   st.Orders,
			OrderSvc: orderSvc,
			Producer: producer,
			Log:      logger,
		},
		AuthHandler:     &handlers.AuthHandler{Users: st.Users, JWTSecret: jwtSecret, Producer: producer, Log: logger},
		CheckoutHandler: &handlers.CheckoutHandler{Gateway: gateway, OrderSvc: orderSvc},
		SearchHandler:   searchHandler,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.SERVER_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := st.Close(ctx); err != nil {
		log.Printf("store close error: %v", err)
	}
	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
