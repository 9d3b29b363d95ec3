package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/clearsight/pos-engine/internal/cart"
	"github.com/clearsight/pos-engine/internal/catalog"
	"github.com/clearsight/pos-engine/internal/consumer"
	"github.com/clearsight/pos-engine/internal/httpapi"
	"github.com/clearsight/pos-engine/internal/inventory"
	"github.com/clearsight/pos-engine/internal/order"
	"github.com/clearsight/pos-engine/internal/publisher"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	HTTPPort             string
	CatalogDBPath        string
	CatalogMigrationsDir string
	MongoURI             string
	MongoDBName          string
	RedisAddr            string
	KafkaBrokers         string
	OrdersDBHost         string
	OrdersDBPort         int
	OrdersDBUser         string
	OrdersDBPassword     string
	OrdersDBName         string
	OrdersMigrationsDir  string
	RequestTimeout       time.Duration
	ShutdownTimeout      time.Duration
	AvailabilityTimeout  time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		CatalogDBPath:        getEnv("CATALOG_DB_PATH", "./catalog.db"),
		CatalogMigrationsDir: getEnv("CATALOG_MIGRATIONS_DIR", "./migrations/catalog"),
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:          getEnv("MONGO_DB_NAME", "pos"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:         getEnv("KAFKA_BROKERS", "localhost:9092"),
		OrdersDBHost:         getEnv("ORDERS_DB_HOST", "localhost"),
		OrdersDBPort:         getEnvInt("ORDERS_DB_PORT", 5432),
		OrdersDBUser:         getEnv("ORDERS_DB_USER", "postgres"),
		OrdersDBPassword:     getEnv("ORDERS_DB_PASSWORD", "postgres"),
		OrdersDBName:         getEnv("ORDERS_DB_NAME", "orders"),
		OrdersMigrationsDir:  getEnv("ORDERS_MIGRATIONS_DIR", "./migrations/orders"),
		RequestTimeout:       30 * time.Second,
		ShutdownTimeout:      10 * time.Second,
		AvailabilityTimeout:  3 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog (sqlite)
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("failed to open catalog: %v", err)
	}
	defer catalogRepo.Close()

	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsDir); err != nil {
		log.Fatalf("catalog migrations failed: %v", err)
	}
	catalogService := catalog.NewService(catalogRepo)

	// Cart (mongo + redis cache)
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	cartRepo := cart.NewMongoRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping redis: %v", err)
	}
	cartCache := cart.NewRedisCache(redisClient)
	cartService := cart.NewService(catalogService, cartRepo, cartCache)

	// Orders (postgres)
	orderCreds := &order.Credentials{
		Host:              cfg.OrdersDBHost,
		Port:              cfg.OrdersDBPort,
		User:              cfg.OrdersDBUser,
		Password:          cfg.OrdersDBPassword,
		DBName:            cfg.OrdersDBName,
		MigrationsDirPath: cfg.OrdersMigrationsDir,
	}
	orderRepo, err := order.NewPostgresRepository(orderCreds)
	if err != nil {
		log.Fatalf("failed to open orders database: %v", err)
	}
	defer orderRepo.Close()

	if err := orderRepo.RunMigrations(orderCreds); err != nil {
		log.Fatalf("orders migrations failed: %v", err)
	}

	// Inventory seeded from the catalog
	store := inventory.NewMemoryStore()
	defer store.Close()
	if err := seedInventory(ctx, catalogService, store); err != nil {
		log.Fatalf("failed to seed inventory: %v", err)
	}
	checker := inventory.NewBreakerChecker(inventory.NewStoreChecker(store), cfg.AvailabilityTimeout)

	orderService := order.NewService(cartService, orderRepo, checker)

	// Outbox poller and cart-clearing consumer
	poller := publisher.NewOutboxPoller(orderRepo, cfg.KafkaBrokers)
	defer poller.Close()
	go poller.Run(ctx)

	orderConsumer := consumer.NewConsumer(cartService, cfg.KafkaBrokers)
	defer orderConsumer.Close()
	go orderConsumer.Run(ctx)

	router := httpapi.NewRouter(catalogService, cartService, orderService, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("pos-engine starting on :%s", cfg.HTTPPort)
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

	log.Println("server exited")
}

func seedInventory(ctx context.Context, catalogService *catalog.Service, store inventory.Store) error {
	products, err := catalogService.ListProducts(ctx, "", "")
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := store.SetStock(p.ID, p.StockQuantity); err != nil {
			return err
		}
	}
	log.Printf("inventory seeded with %d products", len(products))
	return nil
}
