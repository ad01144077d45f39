package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSideEffectWorkers_DrainAndStop(t *testing.T) {
	env := newTestEnv(t)

	const placements = 8
	for i := 0; i < placements; i++ {
		sessionID := fmt.Sprintf("s%d", i)
		basket := validBasket(sessionID)
		basket.CustomerEmail = fmt.Sprintf("c%d@example.com", i)
		env.baskets.baskets[sessionID] = basket
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			env.svc.RunSideEffectWorker(id)
		}(i)
	}

	for i := 0; i < placements; i++ {
		sess := Session{ID: fmt.Sprintf("s%d", i), CustomerID: "cust-1"}
		if result := env.svc.PlaceOrder(context.Background(), sess); result.Error {
			t.Fatalf("placement %d failed: %+v", i, result)
		}
	}

	env.svc.Close()
	wg.Wait()

	if env.notifier.count() != placements {
		t.Errorf("expected %d confirmations, got %d", placements, env.notifier.count())
	}
	env.baskets.mu.Lock()
	remaining := len(env.baskets.baskets)
	env.baskets.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected all baskets cleared, %d remain", remaining)
	}
}
