package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/telshop/storefront/internal/apiclient"
	"github.com/telshop/storefront/internal/cartsync"
	"github.com/telshop/storefront/internal/catalog"
	"github.com/telshop/storefront/internal/checkout"
	"github.com/telshop/storefront/internal/events"
	"github.com/telshop/storefront/internal/httpapi"
	"github.com/telshop/storefront/internal/store"
)

type Config struct {
	HTTPPort         string
	SessionID        string
	CatalogURL       string
	CatalogProxyURL  string
	DiscountURL      string
	CartServiceURL   string
	OrderServiceURL  string
	CartStore        string
	CartStorePath    string
	MigrationsPath   string
	RedisAddr        string
	MongoURI         string
	MongoDatabase    string
	KafkaBrokers     []string
	UpstreamTimeout  time.Duration
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
}

func loadConfig() *Config {
	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		SessionID:       getEnv("SESSION_ID", uuid.NewString()),
		CatalogURL:      getEnv("CATALOG_URL", "http://localhost:8081/products"),
		CatalogProxyURL: getEnv("CATALOG_PROXY_URL", "http://localhost:8082/products"),
		DiscountURL:     getEnv("DISCOUNT_URL", "http://localhost:8081/discounts"),
		CartServiceURL:  getEnv("CART_SERVICE_URL", "http://localhost:8083/cart"),
		OrderServiceURL: getEnv("ORDER_SERVICE_URL", "http://localhost:8084/orders"),
		CartStore:       getEnv("CART_STORE", "file"),
		CartStorePath:   getEnv("CART_STORE_PATH", "cart.json"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "storefront"),
		KafkaBrokers:    brokers,
		UpstreamTimeout: apiclient.DefaultTimeout,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func openStore(ctx context.Context, cfg *Config) (store.Store, func(), error) {
	switch cfg.CartStore {
	case "file":
		return store.NewFileStore(cfg.CartStorePath), func() {}, nil
	case "sqlite":
		st, err := store.NewSQLiteStore(cfg.CartStorePath, cfg.SessionID)
		if err != nil {
			return nil, nil, err
		}
		if err := st.RunMigrations(cfg.MigrationsPath); err != nil {
			st.Close()
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client, cfg.SessionID), func() { client.Close() }, nil
	case "mongo":
		db, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMongoStore(db, cfg.SessionID), func() {
			db.Client().Disconnect(context.Background())
		}, nil
	default:
		return nil, nil, errors.New("unknown CART_STORE: " + cfg.CartStore)
	}
}

func main() {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cartStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open cart store: %v", err)
	}
	defer closeStore()

	catalogClient := apiclient.NewCatalogClient(cfg.CatalogURL, cfg.CatalogProxyURL, cfg.UpstreamTimeout)
	discountClient := apiclient.NewDiscountClient(cfg.DiscountURL, cfg.UpstreamTimeout)
	cartClient := apiclient.NewCartClient(cfg.CartServiceURL, cfg.UpstreamTimeout)
	orderClient := apiclient.NewOrderClient(cfg.OrderServiceURL, cfg.UpstreamTimeout)

	fetcher := catalog.NewFetcher(catalogClient, discountClient)

	cartSession := cartsync.New(cartClient, cartStore)
	if err := cartSession.Load(ctx); err != nil {
		log.Printf("cart load failed, starting empty: %v", err)
	}
	if cartSession.Offline() {
		log.Println("cart service unreachable, serving local snapshot")
	}

	checkoutService := checkout.NewService(orderClient, cartSession)

	if len(cfg.KafkaBrokers) > 0 {
		poller := events.NewPoller(checkoutService, cartSession, "storefront-"+cfg.SessionID, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(ctx)
	}

	productHandler := httpapi.NewProductHandler(fetcher)
	cartHandler := httpapi.NewCartHandler(cartSession, fetcher)
	checkoutHandler := httpapi.NewCheckoutHandler(checkoutService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{productID}", productHandler.Get)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})
		r.Post("/checkout", checkoutHandler.PlaceOrder)
		r.Get("/orders/{orderID}", checkoutHandler.GetOrder)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s (session %s, store %s)", cfg.HTTPPort, cfg.SessionID, cfg.CartStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	cartSession.Wait()
	log.Println("server exited")
}
