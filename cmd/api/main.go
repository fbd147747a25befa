package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/joao-fontenele/storefront/internal/articles"
	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/customers"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	_ = godotenv.Load()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	secret := []byte(jwtSecret)

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
	}

	customerHandler := customers.NewHandler(customers.NewCustomerRepository(db), secret, logger)
	catalogHandler := catalog.NewHandler(catalog.NewCatalogRepository(db), logger)
	cartHandler := cart.NewHandler(cart.NewCartRepository(db), logger)

	orderHandler, err := orders.NewHandler(orders.NewOrderRepository(db), producer, logger)
	if err != nil {
		logger.Error("failed to create orders handler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}

	route("POST /customers", customerHandler.HandleRegister)
	route("POST /customers/login", customerHandler.HandleLogin)
	route("GET /customers/me", auth.Require(secret, customerHandler.HandleMe))

	route("POST /addresses", auth.Require(secret, customerHandler.HandleCreateAddress))
	route("GET /addresses", auth.Require(secret, customerHandler.HandleListAddresses))
	route("PUT /addresses/{id}", auth.Require(secret, customerHandler.HandleUpdateAddress))
	route("DELETE /addresses/{id}", auth.Require(secret, customerHandler.HandleDeleteAddress))

	route("GET /collections", catalogHandler.HandleListCollections)
	route("GET /collections/{id}", catalogHandler.HandleGetCollection)
	route("POST /collections", auth.RequireAdmin(secret, catalogHandler.HandleCreateCollection))
	route("PUT /collections/{id}", auth.RequireAdmin(secret, catalogHandler.HandleUpdateCollection))
	route("DELETE /collections/{id}", auth.RequireAdmin(secret, catalogHandler.HandleDeleteCollection))

	route("GET /products", catalogHandler.HandleListProducts)
	route("GET /products/{id}", catalogHandler.HandleGetProduct)
	route("POST /products", auth.RequireAdmin(secret, catalogHandler.HandleCreateProduct))
	route("PUT /products/{id}", auth.RequireAdmin(secret, catalogHandler.HandleUpdateProduct))
	route("DELETE /products/{id}", auth.RequireAdmin(secret, catalogHandler.HandleDeleteProduct))
	route("POST /products/{id}/images", auth.RequireAdmin(secret, catalogHandler.HandleAddImage))
	route("GET /products/{id}/reviews", catalogHandler.HandleListReviews)
	route("POST /products/{id}/reviews", catalogHandler.HandleAddReview)

	route("POST /carts", auth.Optional(secret, cartHandler.HandleCreate))
	route("GET /carts", auth.Optional(secret, cartHandler.HandleList))
	route("GET /carts/{id}", auth.Require(secret, cartHandler.HandleGet))
	route("POST /carts/{id}/items", auth.Require(secret, cartHandler.HandleAddItem))
	route("PATCH /carts/{id}/items/{itemId}", auth.Require(secret, cartHandler.HandleUpdateItem))
	route("DELETE /carts/{id}/items/{itemId}", auth.Require(secret, cartHandler.HandleRemoveItem))

	route("POST /orders", auth.Require(secret, orderHandler.HandlePlace))
	route("GET /orders", auth.Require(secret, orderHandler.HandleList))
	route("GET /orders/{id}", auth.Require(secret, orderHandler.HandleGet))
	route("PATCH /orders/{id}/status", auth.RequireAdmin(secret, orderHandler.HandleUpdateStatus))
	route("DELETE /orders/{id}", auth.RequireAdmin(secret, orderHandler.HandleDelete))

	elasticsearchURL := os.Getenv("ELASTICSEARCH_URL")
	if elasticsearchURL != "" {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{elasticsearchURL},
		})
		if err != nil {
			logger.Error("failed to create elasticsearch client", "error", err)
			os.Exit(1)
		}

		articleHandler := articles.NewHandler(articles.NewService(esClient, articles.DefaultIndex), logger)
		route("GET /articles", articleHandler.HandleSearch)
		route("GET /articles/{id}", articleHandler.HandleGet)
		route("POST /articles", auth.RequireAdmin(secret, articleHandler.HandlePublish))
	} else {
		logger.Info("ELASTICSEARCH_URL not set, article routes disabled")
	}

	mux.Handle("GET /metrics", metricsHandler)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(envOr("CORS_ORIGINS", "*"), ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	port := envOr("PORT", "8080")

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(corsMiddleware.Handler(mux), "api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
