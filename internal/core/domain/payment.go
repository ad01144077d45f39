package domain

// AuthState classifies a payment authorization attempt.
type AuthState string

const (
	AuthStateAuthorized      AuthState = "authorized"
	AuthStateDeclined        AuthState = "declined"
	AuthStatePendingRedirect AuthState = "pending-redirect"
)

// PaymentAuthResult is the transient outcome of one authorization attempt.
// RedirectURL is set only for pending-redirect: the customer must complete
// the payment with the provider and return via the resumption handler.
type PaymentAuthResult struct {
	State         AuthState
	TransactionID string
	RedirectURL   string
}

// FraudStatus is a screening verdict.
type FraudStatus string

const (
	FraudStatusPass FraudStatus = "pass"
	FraudStatusFail FraudStatus = "fail"
)

// FraudResult carries the verdict plus an opaque correlation code. The code
// is the only detail ever exposed to the browser; raw screening internals
// stay server-side.
type FraudResult struct {
	Status    FraudStatus
	ErrorCode string
}
