package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/storefront/checkout/internal/adapter/storage"
	"github.com/storefront/checkout/internal/core/checkout"
	"github.com/storefront/checkout/internal/core/domain"
)

const (
	redisAddr     = "localhost:6379"
	serverURL     = "http://localhost:8080"
	totalRequests = 50
)

func seedBasket(sessionID string) *domain.Basket {
	addr := &domain.Address{
		FirstName:   "Load",
		LastName:    "Tester",
		Address1:    "1 Test Way",
		City:        "Springfield",
		PostalCode:  "12345",
		CountryCode: "US",
	}
	return &domain.Basket{
		SessionID:     sessionID,
		CustomerEmail: sessionID + "@example.com",
		Currency:      "USD",
		Items: []domain.LineItem{
			{ProductID: "sku-001", Name: "Widget", Quantity: 2, UnitPrice: decimal.NewFromFloat(19.99), Available: true},
		},
		Shipments:      []domain.Shipment{{ID: "me", ShippingAddress: addr, ShippingCost: decimal.NewFromFloat(4.99)}},
		BillingAddress: addr,
		PaymentInfo:    &domain.PaymentInformation{MethodID: "CREDIT_CARD", InstrumentToken: "tok_ok"},
	}
}

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	baskets := storage.NewRedisAdapter(rdb)
	for i := 0; i < totalRequests; i++ {
		sessionID := fmt.Sprintf("load-%d", i)
		if err := baskets.Save(ctx, seedBasket(sessionID)); err != nil {
			log.Fatalf("failed to seed basket %s: %v", sessionID, err)
		}
	}

	var placed, failed atomic.Int32
	client := &http.Client{Timeout: 10 * time.Second}

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				serverURL+"/checkoutservices/place-order", bytes.NewReader([]byte("{}")))
			if err != nil {
				failed.Add(1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Session-ID", fmt.Sprintf("load-%d", i))

			resp, err := client.Do(req)
			if err != nil {
				failed.Add(1)
				return
			}
			defer resp.Body.Close()

			var result checkout.PlacementResult
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.Error {
				failed.Add(1)
				return
			}
			placed.Add(1)
		}(i)
	}
	wg.Wait()

	log.Printf("done in %v: placed=%d failed=%d", time.Since(start), placed.Load(), failed.Load())
}
