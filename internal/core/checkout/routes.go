package checkout

import "net/url"

// Routes builds the browser-facing URLs the pipeline hands back in results
// and redirects. Paths are relative; the frontend owns the host.
type Routes struct {
	Cart          string
	Home          string
	OrderConfirm  string
	ErrorCode     string
	CheckoutBegin string
}

func DefaultRoutes() Routes {
	return Routes{
		Cart:          "/cart",
		Home:          "/",
		OrderConfirm:  "/order/confirm",
		ErrorCode:     "/error",
		CheckoutBegin: "/checkout",
	}
}

func (r Routes) CartURL() string { return r.Cart }

func (r Routes) HomeURL() string { return r.Home }

// ConfirmURL is the post-placement continue URL. The client already holds
// the order number and token from the placement result.
func (r Routes) ConfirmURL() string { return r.OrderConfirm }

// ConfirmOrderURL is the resumption variant carrying identity in the query,
// since the returning browser has no placement result to read from.
func (r Routes) ConfirmOrderURL(orderNo, token string) string {
	q := url.Values{}
	q.Set("ID", orderNo)
	q.Set("token", token)
	return r.OrderConfirm + "?" + q.Encode()
}

// ErrorCodeURL carries only the opaque correlation code.
func (r Routes) ErrorCodeURL(code string) string {
	q := url.Values{}
	q.Set("err", code)
	return r.ErrorCode + "?" + q.Encode()
}

// PaymentErrorURL re-enters checkout at the payment stage with an error flag
// so the customer can retry with a different instrument.
func (r Routes) PaymentErrorURL() string {
	return r.CheckoutBegin + "?stage=payment&error=payment"
}
