package rental

import (
	"context"
	"testing"
	"time"
)

type recordingEnqueuer struct {
	enqueued []string
}

func (e *recordingEnqueuer) Enqueue(identityID string) {
	e.enqueued = append(e.enqueued, identityID)
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestAssignAndConflict(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	svc.now = fixedNow
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 48, false); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.Assign(ctx, "num1", "bob", 24, false); err != ErrConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	// Same renter replacing their own rental is fine.
	if _, err := svc.Assign(ctx, "num1", "alice", 24, false); err != nil {
		t.Fatalf("re-assign by holder: %v", err)
	}
}

func TestExtendAddsToRemaining(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	start := fixedNow()
	svc.now = func() time.Time { return start }
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 48, false); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// 12 hours in, 36 remain. Adding 24 must leave 60 remaining.
	svc.now = func() time.Time { return start.Add(12 * time.Hour) }
	extended, err := svc.Assign(ctx, "num1", "alice", 24, true)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if got := extended.RemainingAt(svc.now()); got != 60*time.Hour {
		t.Fatalf("expected 60h remaining after extend, got %s", got)
	}

	// A second sequential extend sees the first one; no lost update.
	extended, err = svc.Assign(ctx, "num1", "alice", 12, true)
	if err != nil {
		t.Fatalf("second extend: %v", err)
	}
	if got := extended.RemainingAt(svc.now()); got != 72*time.Hour {
		t.Fatalf("expected 72h remaining after second extend, got %s", got)
	}
}

func TestExtendClearsReminderEpoch(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	svc.now = fixedNow
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 48, false); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.MarkReminded(ctx, "num1"); err != nil {
		t.Fatalf("mark reminded: %v", err)
	}

	extended, err := svc.Assign(ctx, "num1", "alice", 24, true)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if extended.ReminderSent {
		t.Fatal("extend must start a new reminder epoch")
	}
}

func TestExtendExpiredRentalRestarts(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	start := fixedNow()
	svc.now = func() time.Time { return start }
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 24, false); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Past the end but not yet swept: remaining-at-read is zero, so the new
	// duration is exactly the added hours.
	svc.now = func() time.Time { return start.Add(30 * time.Hour) }
	extended, err := svc.Assign(ctx, "num1", "alice", 24, true)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if got := extended.RemainingAt(svc.now()); got != 24*time.Hour {
		t.Fatalf("expected 24h remaining, got %s", got)
	}
}

func TestExtendByNonHolderFails(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	svc.now = fixedNow
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 24, false); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.Assign(ctx, "num1", "bob", 24, true); err != ErrConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelEnqueuesDeletion(t *testing.T) {
	enq := &recordingEnqueuer{}
	svc := NewService(NewMemoryRepository(), enq)
	svc.now = fixedNow
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 24, false); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.Cancel(ctx, "num1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := svc.Get(ctx, "num1"); err != ErrNotRented {
		t.Fatalf("expected rental cleared, got %v", err)
	}
	if len(enq.enqueued) != 1 || enq.enqueued[0] != "num1" {
		t.Fatalf("expected deletion enqueued for num1, got %v", enq.enqueued)
	}
}

func TestTransferPreservesRemainingTime(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	start := fixedNow()
	svc.now = func() time.Time { return start }
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 48, false); err != nil {
		t.Fatalf("assign: %v", err)
	}

	svc.now = func() time.Time { return start.Add(10 * time.Hour) }
	transferred, err := svc.Transfer(ctx, "num1", "alice", "bob")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if transferred.RenterID != "bob" {
		t.Fatalf("expected bob, got %s", transferred.RenterID)
	}
	if got := transferred.RemainingAt(svc.now()); got != 38*time.Hour {
		t.Fatalf("transfer must preserve remaining time, got %s", got)
	}
}

func TestTransferOwnershipMismatch(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	svc.now = fixedNow
	ctx := context.Background()

	if _, err := svc.Assign(ctx, "num1", "alice", 48, false); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.Transfer(ctx, "num1", "mallory", "bob"); err != ErrOwnershipMismatch {
		t.Fatalf("expected ownership mismatch, got %v", err)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	rent := Rental{IdentityID: "num1", RenterID: "alice", RentStart: fixedNow(), Hours: 48}

	exactly := fixedNow().Add(48 * time.Hour)
	if got := rent.RemainingAt(exactly); got != 0 {
		t.Fatalf("expected 0 remaining at exact end, got %s", got)
	}
	if got := rent.RemainingAt(exactly.Add(time.Hour)); got != 0 {
		t.Fatalf("expected clamped 0 past end, got %s", got)
	}
}
