package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address is a postal address used for both shipping and billing.
type Address struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	StateCode   string `json:"stateCode,omitempty"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone,omitempty"`
}

// Equal reports whether two addresses refer to the same physical location.
// Phone is deliberately excluded so the address book deduplicates on location.
func (a Address) Equal(b Address) bool {
	return a.FirstName == b.FirstName &&
		a.LastName == b.LastName &&
		a.Address1 == b.Address1 &&
		a.Address2 == b.Address2 &&
		a.City == b.City &&
		a.PostalCode == b.PostalCode &&
		a.StateCode == b.StateCode &&
		a.CountryCode == b.CountryCode
}

type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Available bool            `json:"available"`
}

// Shipment groups line items under one shipping destination. The default
// shipment is index 0; additional shipments only exist in multi-ship checkouts.
type Shipment struct {
	ID              string          `json:"id"`
	ShippingAddress *Address        `json:"shippingAddress"`
	MethodID        string          `json:"methodId,omitempty"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// PaymentInformation is the instrument slot filled by a payment form
// processor before authorization. InstrumentToken is an opaque provider
// reference, never raw card data.
type PaymentInformation struct {
	MethodID        string `json:"methodId"`
	InstrumentToken string `json:"instrumentToken,omitempty"`
	CardLast4       string `json:"cardLast4,omitempty"`
}

// Basket is the in-progress cart for one session. It is mutable up to the
// moment an order snapshot is taken, and cleared on successful placement.
type Basket struct {
	SessionID      string              `json:"sessionId"`
	CustomerID     string              `json:"customerId,omitempty"`
	CustomerEmail  string              `json:"customerEmail,omitempty"`
	Currency       string              `json:"currency"`
	Items          []LineItem          `json:"items"`
	Shipments      []Shipment          `json:"shipments"`
	BillingAddress *Address            `json:"billingAddress"`
	PaymentInfo    *PaymentInformation `json:"paymentInfo,omitempty"`
	Totals         Totals              `json:"totals"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// DefaultShipment returns the basket's first shipment, or nil for an empty
// shipment list.
func (b *Basket) DefaultShipment() *Shipment {
	if len(b.Shipments) == 0 {
		return nil
	}
	return &b.Shipments[0]
}

// ShippingAddresses collects every non-nil shipment address, in shipment order.
func (b *Basket) ShippingAddresses() []Address {
	var out []Address
	for _, s := range b.Shipments {
		if s.ShippingAddress != nil {
			out = append(out, *s.ShippingAddress)
		}
	}
	return out
}
