package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storefront/checkout/internal/core/domain"
)

// suspendOrder places a valid basket through the pipeline with a
// pending-redirect processor, returning the suspended order's identity.
func suspendOrder(t *testing.T, env *testEnv, sessionID, customerID string) (orderNo, token string) {
	t.Helper()
	basket := validBasket(sessionID)
	basket.CustomerID = customerID
	basket.PaymentInfo.MethodID = "HOSTED_PAGE"
	env.baskets.baskets[sessionID] = basket
	env.hooks.RegisterPaymentProcessor("HOSTED_PAGE", &recordingProcessor{
		result: domain.PaymentAuthResult{
			State:       domain.AuthStatePendingRedirect,
			RedirectURL: "https://pay.example.com/session",
		},
	})

	result := env.svc.PlaceOrder(context.Background(), Session{ID: sessionID, CustomerID: customerID})
	if result.Error || !result.PaymentPending {
		t.Fatalf("expected pending suspension, got %+v", result)
	}
	return result.OrderID, result.OrderToken
}

func TestResume_MissingParams(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ orderNo, token string }{
		{"", ""},
		{"00000001", ""},
		{"", "some-token"},
	} {
		redirect := env.svc.Resume(context.Background(), Session{ID: "s1"}, tc.orderNo, tc.token)
		if redirect.URL != "/" {
			t.Errorf("Resume(%q, %q): expected neutral redirect, got %q", tc.orderNo, tc.token, redirect.URL)
		}
	}
}

func TestResume_UnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	redirect := env.svc.Resume(context.Background(), Session{ID: "s1"}, "99999999", "token")
	if redirect.URL != "/" {
		t.Errorf("expected neutral redirect, got %q", redirect.URL)
	}
}

func TestResume_WrongToken(t *testing.T) {
	env := newTestEnv(t)
	orderNo, _ := suspendOrder(t, env, "s1", "cust-1")

	redirect := env.svc.Resume(context.Background(),
		Session{ID: "s1", CustomerID: "cust-1"}, orderNo, "not-the-token")

	if redirect.URL != "/" {
		t.Errorf("expected neutral redirect, got %q", redirect.URL)
	}
	if got := env.orders.status(t, orderNo); got != domain.OrderStatusPaymentPending {
		t.Errorf("order mutated on wrong token: %s", got)
	}
}

func TestResume_CustomerMismatch(t *testing.T) {
	env := newTestEnv(t)
	orderNo, token := suspendOrder(t, env, "s1", "cust-1")

	redirect := env.svc.Resume(context.Background(),
		Session{ID: "s2", CustomerID: "cust-2"}, orderNo, token)

	if redirect.URL != "/" {
		t.Errorf("expected neutral redirect, got %q", redirect.URL)
	}
	if got := env.orders.status(t, orderNo); got != domain.OrderStatusPaymentPending {
		t.Errorf("order mutated on customer mismatch: %s", got)
	}
}

func TestResume_ValidIntent(t *testing.T) {
	env := newTestEnv(t)
	orderNo, token := suspendOrder(t, env, "s1", "cust-1")

	redirect := env.svc.Resume(context.Background(),
		Session{ID: "s1", CustomerID: "cust-1"}, orderNo, token)

	if !strings.HasPrefix(redirect.URL, "/order/confirm?") {
		t.Fatalf("expected confirmation redirect, got %q", redirect.URL)
	}
	if !strings.Contains(redirect.URL, "ID="+orderNo) {
		t.Errorf("expected order number in redirect, got %q", redirect.URL)
	}
	if got := env.orders.status(t, orderNo); got != domain.OrderStatusPlaced {
		t.Errorf("expected placed after valid resumption, got %s", got)
	}
}

func TestResume_IdempotentAfterPlacement(t *testing.T) {
	env := newTestEnv(t)
	orderNo, token := suspendOrder(t, env, "s1", "cust-1")
	sess := Session{ID: "s1", CustomerID: "cust-1"}

	first := env.svc.Resume(context.Background(), sess, orderNo, token)
	second := env.svc.Resume(context.Background(), sess, orderNo, token)

	if first.URL != second.URL {
		t.Errorf("resumption not idempotent: %q vs %q", first.URL, second.URL)
	}
	if got := env.orders.status(t, orderNo); got != domain.OrderStatusPlaced {
		t.Errorf("expected placed, got %s", got)
	}

	// Exactly one finalization: one side-effect job, one notification.
	env.drainEffects()
	if env.notifier.count() != 1 {
		t.Errorf("expected one confirmation dispatch, got %d", env.notifier.count())
	}
}

func TestResume_InvalidIntent(t *testing.T) {
	env := newTestEnv(t)
	basket := validBasket("s1")
	basket.PaymentInfo.MethodID = "HOSTED_PAGE"
	env.baskets.baskets["s1"] = basket
	proc := &recordingProcessor{
		result: domain.PaymentAuthResult{
			State:       domain.AuthStatePendingRedirect,
			RedirectURL: "https://pay.example.com/session",
		},
	}
	env.hooks.RegisterPaymentProcessor("HOSTED_PAGE", proc)

	sess := Session{ID: "s1", CustomerID: "cust-1"}
	result := env.svc.PlaceOrder(context.Background(), sess)
	if !result.PaymentPending {
		t.Fatalf("expected suspension, got %+v", result)
	}

	proc.intent = errors.New("intent cancelled at provider")
	redirect := env.svc.Resume(context.Background(), sess, result.OrderID, result.OrderToken)

	if !strings.Contains(redirect.URL, "stage=payment") || !strings.Contains(redirect.URL, "error=payment") {
		t.Errorf("expected payment-stage error redirect, got %q", redirect.URL)
	}
	if got := env.orders.status(t, result.OrderID); got != domain.OrderStatusFailed {
		t.Errorf("expected failed after invalid intent, got %s", got)
	}
}

func TestResume_FailedOrderIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	orderNo, token := suspendOrder(t, env, "s1", "cust-1")
	if err := env.orders.Fail(context.Background(), orderNo); err != nil {
		t.Fatalf("fail order: %v", err)
	}

	redirect := env.svc.Resume(context.Background(),
		Session{ID: "s1", CustomerID: "cust-1"}, orderNo, token)

	if redirect.URL != "/" {
		t.Errorf("failed order must not resume, got %q", redirect.URL)
	}
	if got := env.orders.status(t, orderNo); got != domain.OrderStatusFailed {
		t.Errorf("expected failed to stay terminal, got %s", got)
	}
}

func TestResume_FraudFailOnReturn(t *testing.T) {
	env := newTestEnv(t)
	orderNo, token := suspendOrder(t, env, "s1", "cust-1")
	env.hooks.SetFraudDetector(failFraud{code: "FRD-7"})

	redirect := env.svc.Resume(context.Background(),
		Session{ID: "s1", CustomerID: "cust-1"}, orderNo, token)

	if !strings.Contains(redirect.URL, "err=FRD-7") {
		t.Errorf("expected error-code redirect, got %q", redirect.URL)
	}
	if got := env.orders.status(t, orderNo); got != domain.OrderStatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

func TestOrderByToken(t *testing.T) {
	env := newTestEnv(t)
	env.baskets.baskets["s1"] = validBasket("s1")
	result := env.svc.PlaceOrder(context.Background(), Session{ID: "s1", CustomerID: "cust-1"})
	if result.Error {
		t.Fatalf("expected success, got %+v", result)
	}

	order, err := env.svc.OrderByToken(context.Background(), result.OrderID, result.OrderToken)
	if err != nil || order == nil {
		t.Fatalf("expected order with valid token, got %v / %v", order, err)
	}

	order, err = env.svc.OrderByToken(context.Background(), result.OrderID, "wrong")
	if err != nil || order != nil {
		t.Errorf("expected nil order with wrong token, got %v / %v", order, err)
	}
}
