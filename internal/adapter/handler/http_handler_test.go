package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/checkout/internal/core/checkout"
	"github.com/storefront/checkout/internal/core/domain"
	"github.com/storefront/checkout/internal/core/hook"
	"github.com/storefront/checkout/internal/core/pricing"
)

// In-memory port implementations for driving the full service through HTTP.

type fakeBaskets struct {
	mu      sync.Mutex
	baskets map[string]*domain.Basket
}

func (f *fakeBaskets) Current(_ context.Context, sessionID string) (*domain.Basket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.baskets[sessionID], nil
}

func (f *fakeBaskets) Save(_ context.Context, basket *domain.Basket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baskets[basket.SessionID] = basket
	return nil
}

func (f *fakeBaskets) Clear(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.baskets, sessionID)
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	seq    int
}

func (f *fakeOrders) Create(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	order.OrderNo = fmt.Sprintf("%08d", f.seq)
	stored := *order
	f.orders[order.OrderNo] = &stored
	return nil
}

func (f *fakeOrders) GetByNumber(_ context.Context, orderNo string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderNo]; ok {
		out := *o
		return &out, nil
	}
	return nil, nil
}

func (f *fakeOrders) setStatus(orderNo string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderNo]; ok {
		o.Status = status
		return nil
	}
	return fmt.Errorf("order %s not found", orderNo)
}

func (f *fakeOrders) MarkPaymentPending(_ context.Context, orderNo string) error {
	return f.setStatus(orderNo, domain.OrderStatusPaymentPending)
}

func (f *fakeOrders) Place(_ context.Context, orderNo, _ string) error {
	return f.setStatus(orderNo, domain.OrderStatusPlaced)
}

func (f *fakeOrders) Fail(_ context.Context, orderNo string) error {
	return f.setStatus(orderNo, domain.OrderStatusFailed)
}

func (f *fakeOrders) MarkAuthorizedUnplaced(_ context.Context, orderNo string) error {
	return f.setStatus(orderNo, domain.OrderStatusAuthorizedUnplaced)
}

func (f *fakeOrders) ListPlacedByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID && o.Status == domain.OrderStatusPlaced {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu    sync.Mutex
	flags map[string]bool
}

func (f *fakeCache) GetFlag(_ context.Context, sessionID, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[sessionID+":"+key], nil
}

func (f *fakeCache) SetFlag(_ context.Context, sessionID, key string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[sessionID+":"+key] = value
	return nil
}

type fakeBook struct{}

func (fakeBook) Stored(_ context.Context, _ string) ([]domain.Address, error) { return nil, nil }
func (fakeBook) Save(_ context.Context, _, _ string, _ domain.Address) error  { return nil }

type fakeNotifier struct{}

func (fakeNotifier) SendOrderConfirmation(_ context.Context, _ *domain.Order) error { return nil }

type fixture struct {
	server  *httptest.Server
	baskets *fakeBaskets
	orders  *fakeOrders
	hooks   *hook.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	baskets := &fakeBaskets{baskets: make(map[string]*domain.Basket)}
	orders := &fakeOrders{orders: make(map[string]*domain.Order)}
	hooks := hook.NewRegistry()

	svc := checkout.NewService(
		baskets, orders,
		&fakeCache{flags: make(map[string]bool)},
		pricing.NewCalculator(decimal.Zero),
		fakeBook{}, fakeNotifier{}, hooks,
		checkout.DefaultRoutes(), 64,
	)

	server := httptest.NewServer(NewHTTPHandler(svc).Routes())
	t.Cleanup(server.Close)
	t.Cleanup(svc.Close)

	return &fixture{server: server, baskets: baskets, orders: orders, hooks: hooks}
}

func (f *fixture) seedBasket(sessionID string, mutate func(*domain.Basket)) {
	addr := &domain.Address{
		FirstName: "Ada", LastName: "Lovelace",
		Address1: "12 Analytical Way", City: "London",
		PostalCode: "N1 9GU", CountryCode: "GB",
	}
	basket := &domain.Basket{
		SessionID:     sessionID,
		CustomerID:    "cust-1",
		CustomerEmail: "ada@example.com",
		Currency:      "GBP",
		Items: []domain.LineItem{
			{ProductID: "sku-1", Quantity: 1, UnitPrice: decimal.NewFromInt(42), Available: true},
		},
		Shipments:      []domain.Shipment{{ID: "me", ShippingAddress: addr}},
		BillingAddress: addr,
		PaymentInfo:    &domain.PaymentInformation{MethodID: "CREDIT_CARD", InstrumentToken: "tok_1"},
	}
	if mutate != nil {
		mutate(basket)
	}
	f.baskets.baskets[sessionID] = basket
}

func (f *fixture) placeOrder(t *testing.T, sessionID string) checkout.PlacementResult {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost,
		f.server.URL+"/checkoutservices/place-order", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("X-Customer-ID", "cust-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result checkout.PlacementResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestPlaceOrder_HTTP_MissingShippingAddress(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", func(b *domain.Basket) {
		b.Shipments[0].ShippingAddress = nil
	})

	result := f.placeOrder(t, "s1")

	assert.True(t, result.Error)
	require.NotNil(t, result.ErrorStage)
	assert.Equal(t, "shipping", result.ErrorStage.Stage)
	assert.Equal(t, "address", result.ErrorStage.Step)
}

func TestPlaceOrder_HTTP_NoBasket(t *testing.T) {
	f := newFixture(t)

	result := f.placeOrder(t, "nobody")

	assert.True(t, result.Error)
	assert.True(t, result.CartError)
	assert.Equal(t, "/cart", result.RedirectURL)
}

func TestPlaceOrder_HTTP_Success(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", nil)

	result := f.placeOrder(t, "s1")

	assert.False(t, result.Error)
	assert.NotEmpty(t, result.OrderID)
	assert.NotEmpty(t, result.OrderToken)
	assert.Equal(t, "/order/confirm", result.ContinueURL)
}

// noRedirectClient returns redirect responses instead of following them.
var noRedirectClient = &http.Client{
	CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func (f *fixture) resume(t *testing.T, orderNo, token, customerID string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet,
		f.server.URL+"/checkout/async?orderNo="+orderNo+"&token="+token, nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", "s1")
	req.Header.Set("X-Customer-ID", customerID)

	resp, err := noRedirectClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestResumeAsync_WrongToken(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", func(b *domain.Basket) {
		b.PaymentInfo.MethodID = "HOSTED_PAGE"
	})
	f.hooks.RegisterPaymentProcessor("HOSTED_PAGE", pendingProcessor{})
	placed := f.placeOrder(t, "s1")
	require.True(t, placed.PaymentPending)

	resp := f.resume(t, placed.OrderID, "wrong-token", "cust-1")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestResumeAsync_ValidToken(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", func(b *domain.Basket) {
		b.PaymentInfo.MethodID = "HOSTED_PAGE"
	})
	f.hooks.RegisterPaymentProcessor("HOSTED_PAGE", pendingProcessor{})
	placed := f.placeOrder(t, "s1")
	require.True(t, placed.PaymentPending)

	resp := f.resume(t, placed.OrderID, placed.OrderToken, "cust-1")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/order/confirm?")
}

func TestResumeAsync_CustomerMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", func(b *domain.Basket) {
		b.PaymentInfo.MethodID = "HOSTED_PAGE"
	})
	f.hooks.RegisterPaymentProcessor("HOSTED_PAGE", pendingProcessor{})
	placed := f.placeOrder(t, "s1")
	require.True(t, placed.PaymentPending)

	resp := f.resume(t, placed.OrderID, placed.OrderToken, "someone-else")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	stored, err := f.orders.GetByNumber(context.Background(), placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaymentPending, stored.Status)
}

// pendingProcessor suspends every authorization on a provider redirect.
type pendingProcessor struct{}

func (pendingProcessor) Handle(_ context.Context, basket *domain.Basket, info domain.PaymentInformation) error {
	basket.PaymentInfo = &info
	return nil
}

func (pendingProcessor) Authorize(_ context.Context, _ *domain.Order) (domain.PaymentAuthResult, error) {
	return domain.PaymentAuthResult{
		State:       domain.AuthStatePendingRedirect,
		RedirectURL: "https://pay.example.com/session",
	}, nil
}

func (pendingProcessor) ValidateIntent(_ context.Context, _ *domain.Order) error { return nil }

func TestOrderConfirm_TokenGate(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", nil)
	placed := f.placeOrder(t, "s1")
	require.False(t, placed.Error)

	resp, err := http.Get(f.server.URL + "/order/confirm?ID=" + placed.OrderID + "&token=" + placed.OrderToken)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		OrderNo string `json:"orderNo"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, placed.OrderID, view.OrderNo)
	assert.Equal(t, "placed", view.Status)

	// Wrong token: the order must be unreachable.
	resp2, err := http.Get(f.server.URL + "/order/confirm?ID=" + placed.OrderID + "&token=wrong")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestListOrders_OnlyPlaced(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", nil)
	placed := f.placeOrder(t, "s1")
	require.False(t, placed.Error)

	// A second basket suspended on payment must stay invisible.
	f.seedBasket("s2", func(b *domain.Basket) {
		b.PaymentInfo.MethodID = "HOSTED_PAGE"
	})
	f.hooks.RegisterPaymentProcessor("HOSTED_PAGE", pendingProcessor{})
	req, err := http.NewRequest(http.MethodPost,
		f.server.URL+"/checkoutservices/place-order", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", "s2")
	req.Header.Set("X-Customer-ID", "cust-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	listReq, err := http.NewRequest(http.MethodGet, f.server.URL+"/orders", nil)
	require.NoError(t, err)
	listReq.Header.Set("X-Customer-ID", "cust-1")
	listResp, err := http.DefaultClient.Do(listReq)
	require.NoError(t, err)
	defer listResp.Body.Close()

	var views []struct {
		OrderNo string `json:"orderNo"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, placed.OrderID, views[0].OrderNo)
}

func TestSubmitBilling_HTTP(t *testing.T) {
	f := newFixture(t)
	f.seedBasket("s1", func(b *domain.Basket) {
		b.BillingAddress = nil
	})

	form := checkout.BillingForm{
		FirstName: "Ada", LastName: "Lovelace",
		Address1: "12 Analytical Way", City: "London",
		PostalCode: "N1 9GU", CountryCode: "GB",
		Email: "ada@example.com", Phone: "020 7946 0000",
	}
	body, err := json.Marshal(form)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost,
		f.server.URL+"/checkoutservices/submit-billing", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", "s1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result checkout.BillingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Error)
	require.NotNil(t, result.Basket)
	assert.Equal(t, "London", result.Basket.BillingAddress.City)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
