package checkout

import (
	"context"
	"errors"
	"log"

	"github.com/storefront/checkout/internal/core/domain"
	"github.com/storefront/checkout/internal/core/hook"
	"github.com/storefront/checkout/internal/port"
)

// Session cache flag keys carried across the multi-step checkout.
const (
	FlagUsingMultiShipping   = "usingMultiShipping"
	FlagFraudDetectionStatus = "fraudDetectionStatus"
)

var (
	errNoCurrency     = errors.New("basket has no currency")
	errNonPositiveTxn = errors.New("payment transaction amount is not positive")
)

// Session identifies the caller for one checkout request. Resolution of the
// session cookie into these fields happens upstream.
type Session struct {
	ID         string
	CustomerID string
	Registered bool
}

// Service runs the order placement pipeline for both entry points: the
// inline placement request and the asynchronous payment resumption.
type Service struct {
	baskets   port.BasketRepository
	orders    port.OrderRepository
	cache     port.SessionCache
	pricing   port.PricingEngine
	addresses port.AddressBook
	notifier  port.Notifier
	hooks     *hook.Registry
	routes    Routes
	effects   chan placementJob
}

func NewService(
	baskets port.BasketRepository,
	orders port.OrderRepository,
	cache port.SessionCache,
	pricing port.PricingEngine,
	addresses port.AddressBook,
	notifier port.Notifier,
	hooks *hook.Registry,
	routes Routes,
	effectQueueSize int,
) *Service {
	return &Service{
		baskets:   baskets,
		orders:    orders,
		cache:     cache,
		pricing:   pricing,
		addresses: addresses,
		notifier:  notifier,
		hooks:     hooks,
		routes:    routes,
		effects:   make(chan placementJob, effectQueueSize),
	}
}

// PlaceOrder turns the session's basket into exactly one terminal outcome:
// placed, a recoverable error result, or a technical failure. Step order is
// fixed; pricing always reruns after validation and before any payment call,
// and fraud screening only runs against an authorized order.
func (s *Service) PlaceOrder(ctx context.Context, sess Session) PlacementResult {
	basket, err := s.baskets.Current(ctx, sess.ID)
	if err != nil {
		log.Printf("checkout: load basket for session %s: %v", sess.ID, err)
		return technicalErrorResult()
	}
	if basket == nil {
		return cartErrorResult(s.routes.CartURL())
	}

	if err := s.hooks.ProductValidator().ValidateProducts(ctx, basket); err != nil {
		log.Printf("checkout: product validation for session %s: %v", sess.ID, err)
		return cartErrorResult(s.routes.CartURL())
	}

	if err := s.hooks.OrderValidator().ValidateOrder(ctx, basket); err != nil {
		return validationErrorResult(err.Error())
	}

	if ship := basket.DefaultShipment(); ship == nil || ship.ShippingAddress == nil {
		return stageErrorResult("shipping", "address", "No shipping address provided.")
	}
	if basket.BillingAddress == nil {
		return stageErrorResult("payment", "billingAddress", "No billing address provided.")
	}

	totals, err := s.pricing.Calculate(ctx, basket)
	if err != nil {
		log.Printf("checkout: pricing recalculation for session %s: %v", sess.ID, err)
		return technicalErrorResult()
	}
	basket.Totals = totals
	if err := s.baskets.Save(ctx, basket); err != nil {
		log.Printf("checkout: persist totals for session %s: %v", sess.ID, err)
		return technicalErrorResult()
	}

	if err := calculatePaymentTransaction(basket); err != nil {
		log.Printf("checkout: payment transaction for session %s: %v", sess.ID, err)
		return technicalErrorResult()
	}

	order := domain.NewOrderFromBasket(basket)
	if err := s.orders.Create(ctx, &order); err != nil {
		log.Printf("checkout: create order for session %s: %v", sess.ID, err)
		return technicalErrorResult()
	}

	processor := s.hooks.PaymentProcessor(order.PaymentMethodID())
	auth, err := processor.Authorize(ctx, &order)
	if err != nil {
		// The order stays in created; a fresh placement attempt may retry.
		log.Printf("checkout: authorize order %s: %v", order.OrderNo, err)
		return technicalErrorResult()
	}

	switch auth.State {
	case domain.AuthStateDeclined:
		log.Printf("checkout: authorization declined for order %s", order.OrderNo)
		return technicalErrorResult()
	case domain.AuthStatePendingRedirect:
		if err := s.orders.MarkPaymentPending(ctx, order.OrderNo); err != nil {
			log.Printf("checkout: mark payment-pending for order %s: %v", order.OrderNo, err)
			return technicalErrorResult()
		}
		return pendingResult(order.OrderNo, order.Token, auth.RedirectURL)
	}

	order.TransactionID = auth.TransactionID
	return s.finalize(ctx, sess, &order)
}

// finalize is the shared tail of both entry points: fraud screening,
// status commit, and post-placement side effects.
func (s *Service) finalize(ctx context.Context, sess Session, order *domain.Order) PlacementResult {
	fraud := s.hooks.FraudDetector().Screen(ctx, order)
	if fraud.Status == domain.FraudStatusFail {
		if err := s.orders.Fail(ctx, order.OrderNo); err != nil {
			log.Printf("checkout: fail order %s after fraud rejection: %v", order.OrderNo, err)
		}
		if err := s.cache.SetFlag(ctx, sess.ID, FlagFraudDetectionStatus, true); err != nil {
			log.Printf("checkout: set fraud flag for session %s: %v", sess.ID, err)
		}
		return fraudRejectionResult(s.routes.ErrorCodeURL(fraud.ErrorCode))
	}

	if err := s.orders.Place(ctx, order.OrderNo, order.TransactionID); err != nil {
		// Funds are authorized but the order did not reach placed. Park it
		// for operational reconciliation instead of retrying.
		log.Printf("checkout: place order %s: %v", order.OrderNo, err)
		if err := s.orders.MarkAuthorizedUnplaced(ctx, order.OrderNo); err != nil {
			log.Printf("checkout: CRITICAL order %s authorized but unplaced and unmarked: %v", order.OrderNo, err)
		}
		return technicalErrorResult()
	}
	order.Status = domain.OrderStatusPlaced

	s.effects <- placementJob{order: *order, session: sess}

	return successResult(order.OrderNo, order.Token, s.routes.ConfirmURL())
}

// calculatePaymentTransaction derives the amount to authorize from the
// recalculated totals and rejects baskets that cannot be charged.
func calculatePaymentTransaction(basket *domain.Basket) error {
	if basket.Currency == "" {
		return errNoCurrency
	}
	if !basket.Totals.GrandTotal.IsPositive() {
		return errNonPositiveTxn
	}
	return nil
}
