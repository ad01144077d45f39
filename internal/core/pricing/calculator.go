package pricing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/storefront/checkout/internal/core/domain"
)

var ErrNegativeLine = errors.New("line item has negative price or quantity")

// Calculator is the default pricing engine: line subtotals plus shipment
// costs plus a flat tax rate. It never reads client-submitted totals; the
// basket's stored totals are ignored and recomputed from scratch.
type Calculator struct {
	TaxRate decimal.Decimal
}

func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{TaxRate: taxRate}
}

func (c *Calculator) Calculate(_ context.Context, basket *domain.Basket) (domain.Totals, error) {
	subtotal := decimal.Zero
	for _, item := range basket.Items {
		if item.Quantity < 0 || item.UnitPrice.IsNegative() {
			return domain.Totals{}, ErrNegativeLine
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	shipping := decimal.Zero
	for _, s := range basket.Shipments {
		shipping = shipping.Add(s.ShippingCost)
	}

	tax := subtotal.Add(shipping).Mul(c.TaxRate).Round(2)

	return domain.Totals{
		Subtotal:   subtotal,
		Shipping:   shipping,
		Tax:        tax,
		GrandTotal: subtotal.Add(shipping).Add(tax),
	}, nil
}
