package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/cache"
	"github.com/caterline/caterline/internal/httpapi"
	"github.com/caterline/caterline/internal/publisher"
	"github.com/caterline/caterline/internal/repository"
	"github.com/caterline/caterline/internal/service"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	KafkaBrokers    string
	JWTSecret       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		JWTSecret:       getEnv("SECRET_KEY", ""),
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

func main() {
	log.Println("caterline server starting...")
	var wg sync.WaitGroup

	cfg := loadConfig()
	if cfg.JWTSecret == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	// Database setup
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}
	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "caterline"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if e2 := repo.RunMigrations(creds); e2 != nil {
		log.Fatalf("Failed to run migrations: %v", e2)
	}
	log.Println("Database migrations completed")

	// Cart cache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	// Services
	resolver := auth.NewJWTResolver([]byte(cfg.JWTSecret))
	cartService := service.NewCartService(repo, repo, resolver, cartCache)
	orderService := service.NewOrderService(repo, repo, repo, resolver, cartCache)
	paymentService := service.NewPaymentService(repo, repo)
	addressService := service.NewAddressService(repo, repo, resolver)

	cartHandler := httpapi.NewCartHandler(cartService, cfg.RequestTimeout)
	ordersHandler := httpapi.NewOrdersHandler(orderService, cfg.RequestTimeout)
	paymentHandler := httpapi.NewPaymentHandler(paymentService, cfg.RequestTimeout)
	addressHandler := httpapi.NewAddressHandler(addressService, cfg.RequestTimeout)

	// Outbox publisher
	outboxPoller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers)
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		outboxPoller.Run(pollerCtx)
	}()

	// Router
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
		r.Route("/carts", func(r chi.Router) {
			r.Put("/", cartHandler.UpsertCart)
			r.Get("/{order_type}", cartHandler.GetCart)
			r.Put("/lines/{line_id}", cartHandler.UpdateQuantity)
			r.Delete("/lines/{line_id}", cartHandler.DeleteLine)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordersHandler.Materialize)
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
			r.Post("/{order_id}/reorder", ordersHandler.Reorder)
			r.Put("/{order_id}/delivery-status", ordersHandler.UpdateDeliveryStatus)
		})
		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", addressHandler.CreateAddress)
			r.Get("/", addressHandler.ListAddresses)
			r.Get("/{address_id}", addressHandler.GetAddress)
			r.Put("/{address_id}", addressHandler.UpdateAddress)
		})
		r.Post("/payments", paymentHandler.RecordPayment)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("caterline listening on :%s", cfg.HTTPPort)
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Fatalf("server error: %v", errServe)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		log.Printf("server forced to shutdown: %v", errShutdown)
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Println("outbox poller stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("outbox poller didn't stop in time")
	}

	outboxPoller.Close()
	log.Println("caterline server stopped")
}
