package balance

import (
	"context"
	"sync"
	"testing"
)

func TestGetDefaultsToZero(t *testing.T) {
	store := NewInMemory()
	amount, err := store.Get(context.Background(), "unseen")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if amount != 0 {
		t.Fatalf("expected 0 for unseen renter, got %d", amount)
	}
}

func TestConcurrentCredits(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	// Both reconciliation rails credit the same renter at once; no delta may
	// be lost.
	const workers = 20
	const amount = int64(100)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Credit(ctx, "renter", amount); err != nil {
				t.Errorf("credit: %v", err)
			}
		}()
	}
	wg.Wait()

	total, _ := store.Get(ctx, "renter")
	if total != workers*amount {
		t.Fatalf("lost update: expected %d, got %d", workers*amount, total)
	}
}

func TestDebitInsufficient(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	Seed(store, "renter", 500)

	if _, err := store.Debit(ctx, "renter", 600); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	amount, _ := store.Get(ctx, "renter")
	if amount != 500 {
		t.Fatalf("failed debit must not mutate balance, got %d", amount)
	}

	if _, err := store.Debit(ctx, "renter", 500); err != nil {
		t.Fatalf("debit: %v", err)
	}
	amount, _ = store.Get(ctx, "renter")
	if amount != 0 {
		t.Fatalf("expected 0 after full debit, got %d", amount)
	}
}

func TestInvalidAmounts(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	if _, err := store.Credit(ctx, "renter", 0); err != ErrInvalidAmount {
		t.Fatalf("expected invalid amount on zero credit, got %v", err)
	}
	if _, err := store.Debit(ctx, "renter", -5); err != ErrInvalidAmount {
		t.Fatalf("expected invalid amount on negative debit, got %v", err)
	}
}
