package checkout

import (
	"context"
	"crypto/subtle"
	"log"

	"github.com/storefront/checkout/internal/core/domain"
)

// Redirect is the only thing the resumption entry point ever produces. The
// customer arrives via a third-party redirect and cannot render inline
// errors, so every failure degrades to a neutral redirect.
type Redirect struct {
	URL string
}

// Resume re-enters the pipeline after a pending-redirect suspension. Token
// possession, not order-number knowledge, authorizes continuation: order
// numbers are sequential, tokens are opaque secrets.
func (s *Service) Resume(ctx context.Context, sess Session, orderNo, token string) Redirect {
	home := Redirect{URL: s.routes.HomeURL()}

	if orderNo == "" || token == "" {
		return home
	}

	order, err := s.orders.GetByNumber(ctx, orderNo)
	if err != nil {
		log.Printf("checkout: resume load order %s: %v", orderNo, err)
		return home
	}
	if order == nil ||
		subtle.ConstantTimeCompare([]byte(token), []byte(order.Token)) != 1 ||
		order.CustomerID != sess.CustomerID {
		return home
	}

	switch order.Status {
	case domain.OrderStatusPlaced:
		// Already finalized; a repeated return link just lands on the
		// confirmation again.
		return Redirect{URL: s.routes.ConfirmOrderURL(order.OrderNo, order.Token)}
	case domain.OrderStatusFailed, domain.OrderStatusAuthorizedUnplaced:
		return home
	}

	processor := s.hooks.PaymentProcessor(order.PaymentMethodID())
	if err := processor.ValidateIntent(ctx, order); err != nil {
		log.Printf("checkout: resume payment intent invalid for order %s: %v", order.OrderNo, err)
		if err := s.orders.Fail(ctx, order.OrderNo); err != nil {
			log.Printf("checkout: fail order %s after invalid intent: %v", order.OrderNo, err)
		}
		return Redirect{URL: s.routes.PaymentErrorURL()}
	}

	result := s.finalize(ctx, sess, order)
	if result.Error {
		if result.RedirectURL != "" {
			return Redirect{URL: result.RedirectURL}
		}
		return Redirect{URL: s.routes.PaymentErrorURL()}
	}
	return Redirect{URL: s.routes.ConfirmOrderURL(order.OrderNo, order.Token)}
}

// OrderByToken loads an order for confirmation views, gated by possession
// of the order token.
func (s *Service) OrderByToken(ctx context.Context, orderNo, token string) (*domain.Order, error) {
	if orderNo == "" || token == "" {
		return nil, nil
	}
	order, err := s.orders.GetByNumber(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || subtle.ConstantTimeCompare([]byte(token), []byte(order.Token)) != 1 {
		return nil, nil
	}
	return order, nil
}

// PlacedOrders lists the customer's placed orders. Orders that never reached
// placed are not customer-visible.
func (s *Service) PlacedOrders(ctx context.Context, sess Session) ([]domain.Order, error) {
	if sess.CustomerID == "" {
		return nil, nil
	}
	return s.orders.ListPlacedByCustomer(ctx, sess.CustomerID)
}
