package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/storefront/checkout/internal/core/domain"
)

// placementJob carries everything a side-effect worker needs after an order
// reached placed. The order is a copy; workers never touch live state.
type placementJob struct {
	order   domain.Order
	session Session
}

// effectTimeout bounds each side-effect batch so a slow notifier cannot
// wedge a worker.
const effectTimeout = 5 * time.Second

// Close shuts the side-effect queue; call after the HTTP surface stops
// accepting placements.
func (s *Service) Close() {
	close(s.effects)
}

// RunSideEffectWorker drains the side-effect queue until Close. Everything
// here is best-effort: the order is already placed, so failures are logged
// and never surfaced to the customer.
func (s *Service) RunSideEffectWorker(id int) {
	for job := range s.effects {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		s.runSideEffects(ctx, id, job)
		cancel()
	}
}

func (s *Service) runSideEffects(ctx context.Context, workerID int, job placementJob) {
	order := job.order

	if job.session.Registered && job.session.CustomerID != "" {
		s.saveNewAddresses(ctx, workerID, job.session.CustomerID, &order)
	}

	if order.CustomerEmail != "" {
		if err := s.notifier.SendOrderConfirmation(ctx, &order); err != nil {
			log.Printf("worker %d: send confirmation for order %s: %v", workerID, order.OrderNo, err)
		}
	}

	if err := s.cache.SetFlag(ctx, job.session.ID, FlagUsingMultiShipping, false); err != nil {
		log.Printf("worker %d: reset multi-shipping flag for session %s: %v", workerID, job.session.ID, err)
	}

	if err := s.baskets.Clear(ctx, job.session.ID); err != nil {
		log.Printf("worker %d: clear basket for session %s: %v", workerID, job.session.ID, err)
	}
}

// saveNewAddresses persists shipping addresses the customer does not already
// have on file, deduplicated by address equality.
func (s *Service) saveNewAddresses(ctx context.Context, workerID int, customerID string, order *domain.Order) {
	stored, err := s.addresses.Stored(ctx, customerID)
	if err != nil {
		log.Printf("worker %d: load address book for customer %s: %v", workerID, customerID, err)
		return
	}

	for _, addr := range order.ShippingAddresses() {
		known := false
		for _, existing := range stored {
			if addr.Equal(existing) {
				known = true
				break
			}
		}
		if known {
			continue
		}
		name := addressName(addr)
		if err := s.addresses.Save(ctx, customerID, name, addr); err != nil {
			log.Printf("worker %d: save address %q for customer %s: %v", workerID, name, customerID, err)
			continue
		}
		stored = append(stored, addr)
	}
}

func addressName(a domain.Address) string {
	return fmt.Sprintf("%s %s", a.Address1, a.City)
}
