package hook

import (
	"context"
	"sync"

	"github.com/storefront/checkout/internal/core/domain"
)

// PaymentProcessor is the payment integration capability. Handle attaches
// validated payment information to the basket before order creation;
// Authorize reserves funds for the snapshot total; ValidateIntent re-checks
// an out-of-band authorization when the customer returns from a redirect.
type PaymentProcessor interface {
	Handle(ctx context.Context, basket *domain.Basket, info domain.PaymentInformation) error
	Authorize(ctx context.Context, order *domain.Order) (domain.PaymentAuthResult, error)
	ValidateIntent(ctx context.Context, order *domain.Order) error
}

// FraudDetector screens an order after authorization succeeds.
type FraudDetector interface {
	Screen(ctx context.Context, order *domain.Order) domain.FraudResult
}

// OrderValidator applies business rules beyond stock and price. A non-nil
// error carries the user-facing rejection message.
type OrderValidator interface {
	ValidateOrder(ctx context.Context, basket *domain.Basket) error
}

// ProductValidator re-checks that every line item still exists and is
// purchasable.
type ProductValidator interface {
	ValidateProducts(ctx context.Context, basket *domain.Basket) error
}

// PaymentFormResult is the outcome of processing a raw payment form.
type PaymentFormResult struct {
	Info         domain.PaymentInformation
	FieldErrors  map[string]string
	ServerErrors []string
}

// PaymentFormProcessor turns a submitted payment form into payment
// information, or into field/server errors for re-rendering.
type PaymentFormProcessor interface {
	ProcessForm(ctx context.Context, form map[string]string) PaymentFormResult
}

// Registry resolves capabilities to handlers. Every capability has a default
// handler so the pipeline works with no integration registered; payment
// processors are additionally keyed by payment method. Registration happens
// at process startup, lookups at call time.
type Registry struct {
	mu               sync.RWMutex
	defaultPayment   PaymentProcessor
	payments         map[string]PaymentProcessor
	fraudDetector    FraudDetector
	orderValidator   OrderValidator
	productValidator ProductValidator
	paymentForm      PaymentFormProcessor
}

func NewRegistry() *Registry {
	return &Registry{
		defaultPayment:   NoopPaymentProcessor{},
		payments:         make(map[string]PaymentProcessor),
		fraudDetector:    PassFraudDetector{},
		orderValidator:   AcceptOrderValidator{},
		productValidator: AvailabilityProductValidator{},
		paymentForm:      DefaultPaymentFormProcessor{},
	}
}

// RegisterPaymentProcessor binds a processor to a payment method ID.
func (r *Registry) RegisterPaymentProcessor(methodID string, p PaymentProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[methodID] = p
}

// PaymentProcessor resolves the processor for a method, falling back to the
// default when the method has no specific registration.
func (r *Registry) PaymentProcessor(methodID string) PaymentProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.payments[methodID]; ok {
		return p
	}
	return r.defaultPayment
}

func (r *Registry) SetFraudDetector(d FraudDetector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fraudDetector = d
}

func (r *Registry) FraudDetector() FraudDetector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fraudDetector
}

func (r *Registry) SetOrderValidator(v OrderValidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orderValidator = v
}

func (r *Registry) OrderValidator() OrderValidator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orderValidator
}

func (r *Registry) SetProductValidator(v ProductValidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productValidator = v
}

func (r *Registry) ProductValidator() ProductValidator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.productValidator
}

func (r *Registry) SetPaymentFormProcessor(p PaymentFormProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paymentForm = p
}

func (r *Registry) PaymentFormProcessor() PaymentFormProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paymentForm
}
