package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	// OrderStatusCreated is the initial status after the basket snapshot is
	// persisted and before payment authorization completes.
	OrderStatusCreated OrderStatus = "created"

	// OrderStatusPaymentPending marks an order suspended on a third-party
	// payment redirect, waiting for the customer to return.
	OrderStatusPaymentPending OrderStatus = "payment-pending"

	OrderStatusPlaced OrderStatus = "placed"
	OrderStatusFailed OrderStatus = "failed"

	// OrderStatusAuthorizedUnplaced records a finalization failure after
	// funds were already authorized. The order is parked for operational
	// reconciliation; it is never retried automatically.
	OrderStatusAuthorizedUnplaced OrderStatus = "authorized-unplaced"
)

// Order is the durable snapshot taken from a basket at pipeline start.
// OrderNo is a stable, guessable external identifier; Token is the opaque
// possession secret that must accompany it on any resumption or lookup.
type Order struct {
	OrderNo        string
	Token          string
	Status         OrderStatus
	CustomerID     string
	CustomerEmail  string
	Currency       string
	Totals         Totals
	Shipments      []Shipment
	BillingAddress *Address
	PaymentInfo    *PaymentInformation
	TransactionID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOrderFromBasket snapshots a basket into an order. The order number is
// assigned by the repository at insert time; the possession token is minted
// here so it exists before the first write.
func NewOrderFromBasket(b *Basket) Order {
	now := time.Now()
	shipments := make([]Shipment, len(b.Shipments))
	copy(shipments, b.Shipments)
	for i := range shipments {
		if shipments[i].ShippingAddress != nil {
			addr := *shipments[i].ShippingAddress
			shipments[i].ShippingAddress = &addr
		}
	}

	var billing *Address
	if b.BillingAddress != nil {
		addr := *b.BillingAddress
		billing = &addr
	}
	var payInfo *PaymentInformation
	if b.PaymentInfo != nil {
		pi := *b.PaymentInfo
		payInfo = &pi
	}

	return Order{
		Token:          uuid.NewString(),
		Status:         OrderStatusCreated,
		CustomerID:     b.CustomerID,
		CustomerEmail:  b.CustomerEmail,
		Currency:       b.Currency,
		Totals:         b.Totals,
		Shipments:      shipments,
		BillingAddress: billing,
		PaymentInfo:    payInfo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ShippingAddresses collects the non-nil shipment addresses from the snapshot.
func (o *Order) ShippingAddresses() []Address {
	var out []Address
	for _, s := range o.Shipments {
		if s.ShippingAddress != nil {
			out = append(out, *s.ShippingAddress)
		}
	}
	return out
}

// PaymentMethodID returns the snapshot's payment method, or "" when no
// payment information was attached before the snapshot.
func (o *Order) PaymentMethodID() string {
	if o.PaymentInfo == nil {
		return ""
	}
	return o.PaymentInfo.MethodID
}
