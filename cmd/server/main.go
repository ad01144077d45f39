package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/storefront/checkout/internal/adapter/handler"
	"github.com/storefront/checkout/internal/adapter/notify"
	"github.com/storefront/checkout/internal/adapter/payment"
	"github.com/storefront/checkout/internal/adapter/storage"
	"github.com/storefront/checkout/internal/core/checkout"
	"github.com/storefront/checkout/internal/core/hook"
	"github.com/storefront/checkout/internal/core/pricing"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMySQLDSN    = "root:root@tcp(localhost:3306)/checkout?parseTime=true"
	defaultRedisAddr   = "localhost:6379"
	defaultProviderURL = "https://pay.example.com/session"
	workerCount        = 4
	effectQueueSize    = 1024
	taxRate            = "0.0825"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", envOr("MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", defaultRedisAddr),
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Adapters
	redisAdapter := storage.NewRedisAdapter(rdb)
	orderRepo := storage.NewMySQLAdapter(db)
	addressBook := storage.NewMySQLAddressBook(db)

	// Hook registry: payment integrations resolve at startup, with the
	// built-in defaults covering every capability nothing registers for.
	hooks := hook.NewRegistry()
	hooks.RegisterPaymentProcessor("CREDIT_CARD", &payment.CardProcessor{})
	hooks.RegisterPaymentProcessor("HOSTED_PAGE", &payment.HostedProcessor{
		ProviderURL: envOr("PAYMENT_PROVIDER_URL", defaultProviderURL),
	})

	rate, err := decimal.NewFromString(envOr("TAX_RATE", taxRate))
	if err != nil {
		log.Fatalf("invalid tax rate: %v", err)
	}

	svc := checkout.NewService(
		redisAdapter,
		orderRepo,
		redisAdapter,
		pricing.NewCalculator(rate),
		addressBook,
		notify.LogNotifier{},
		hooks,
		checkout.DefaultRoutes(),
		effectQueueSize,
	)

	// Post-placement side-effect workers
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			svc.RunSideEffectWorker(id)
		}(i)
	}
	log.Printf("started %d side-effect workers", workerCount)

	// HTTP server
	httpHandler := handler.NewHTTPHandler(svc)
	httpServer := &http.Server{
		Addr:    envOr("HTTP_ADDR", defaultHTTPAddr),
		Handler: httpHandler.Routes(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	// Drain side effects before closing connections
	svc.Close()
	wg.Wait()
	log.Println("workers stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}
