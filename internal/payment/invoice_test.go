package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/numrent/numrent/internal/balance"
	"github.com/numrent/numrent/internal/logging"
	"github.com/numrent/numrent/internal/notify"
)

type fakeInvoiceAPI struct {
	mu        sync.Mutex
	seq       int
	statuses  map[string]InvoiceStatus
	cancelled []string
}

func newFakeInvoiceAPI() *fakeInvoiceAPI {
	return &fakeInvoiceAPI{statuses: make(map[string]InvoiceStatus)}
}

func (f *fakeInvoiceAPI) CreateInvoice(_ context.Context, _ int64, _, _ string) (InvoiceHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := "inv-" + string(rune('0'+f.seq))
	f.statuses[id] = InvoiceStatusPending
	return InvoiceHandle{ID: id, URL: "https://pay.example/" + id}, nil
}

func (f *fakeInvoiceAPI) GetInvoice(_ context.Context, id string) (InvoiceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[id]
	if !ok {
		return "", errors.New("unknown invoice")
	}
	return status, nil
}

func (f *fakeInvoiceAPI) CancelInvoice(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	f.statuses[id] = InvoiceStatusCancelled
	return nil
}

func (f *fakeInvoiceAPI) markPaid(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = InvoiceStatusPaid
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []string
	edits []string
}

func (n *recordingNotifier) SendToRenter(_ context.Context, _ string, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

func (n *recordingNotifier) EditMessage(_ context.Context, _ notify.MessageRef, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.edits = append(n.edits, text)
	return nil
}

func newInvoiceRail(api InvoiceAPI) (*InvoiceRail, balance.Store, *recordingNotifier) {
	balances := balance.NewInMemory()
	notifier := &recordingNotifier{}
	rail := NewInvoiceRail(api, NewMemoryRepository(), balances, notifier, NewMemoryGuard(), 30*time.Minute, logging.Discard())
	return rail, balances, notifier
}

func TestRequestTopUpSupersedesPending(t *testing.T) {
	api := newFakeInvoiceAPI()
	rail, _, _ := newInvoiceRail(api)
	ctx := context.Background()

	first, err := rail.RequestTopUp(ctx, "alice", 1_000, notify.MessageRef{})
	if err != nil {
		t.Fatalf("first top-up: %v", err)
	}
	second, err := rail.RequestTopUp(ctx, "alice", 2_000, notify.MessageRef{})
	if err != nil {
		t.Fatalf("second top-up: %v", err)
	}

	if len(api.cancelled) != 1 || api.cancelled[0] != first.ID {
		t.Fatalf("expected first invoice cancelled, got %v", api.cancelled)
	}
	if _, err := rail.pending.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected first invoice purged, got %v", err)
	}
	if p, err := rail.pending.ByRenter(ctx, "alice"); err != nil || p.Ref != second.ID {
		t.Fatalf("expected second invoice pending, got %+v %v", p, err)
	}
}

type gatedInvoiceAPI struct {
	*fakeInvoiceAPI
	entered chan struct{}
	release chan struct{}
}

func (a *gatedInvoiceAPI) CreateInvoice(ctx context.Context, amount int64, description, reference string) (InvoiceHandle, error) {
	a.entered <- struct{}{}
	<-a.release
	return a.fakeInvoiceAPI.CreateInvoice(ctx, amount, description, reference)
}

func TestConcurrentTopUpsKeepSinglePending(t *testing.T) {
	api := &gatedInvoiceAPI{
		fakeInvoiceAPI: newFakeInvoiceAPI(),
		entered:        make(chan struct{}, 2),
		release:        make(chan struct{}),
	}
	rail, _, _ := newInvoiceRail(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rail.RequestTopUp(ctx, "alice", 1_000, notify.MessageRef{}); err != nil {
				t.Errorf("top-up: %v", err)
			}
		}()
	}

	// One request is inside the provider call; the other must be held before
	// its pending-set check, not racing past it.
	<-api.entered
	close(api.release)
	wg.Wait()

	all, err := rail.pending.All(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one pending invoice for the renter, got %d", len(all))
	}
	if len(api.cancelled) != 1 {
		t.Fatalf("expected the first invoice superseded, got %v", api.cancelled)
	}
}

func TestCheckPaidCreditsOnce(t *testing.T) {
	api := newFakeInvoiceAPI()
	rail, balances, notifier := newInvoiceRail(api)
	ctx := context.Background()

	handle, err := rail.RequestTopUp(ctx, "alice", 1_500, notify.MessageRef{})
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}
	api.markPaid(handle.ID)

	status, err := rail.Check(ctx, "alice", handle.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status != InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", status)
	}
	if amount, _ := balances.Get(ctx, "alice"); amount != 1_500 {
		t.Fatalf("expected 1500 credited, got %d", amount)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected success notification, got %d", len(notifier.sent))
	}

	// Replay of the consumed invoice id is NotFound, never a second credit.
	if _, err := rail.Check(ctx, "alice", handle.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on replay, got %v", err)
	}
	if amount, _ := balances.Get(ctx, "alice"); amount != 1_500 {
		t.Fatalf("replay must not credit again, got %d", amount)
	}
}

func TestCheckUnknownInvoice(t *testing.T) {
	rail, _, _ := newInvoiceRail(newFakeInvoiceAPI())

	if _, err := rail.Check(context.Background(), "alice", "bogus"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckForeignInvoiceRejected(t *testing.T) {
	api := newFakeInvoiceAPI()
	rail, _, _ := newInvoiceRail(api)
	ctx := context.Background()

	handle, err := rail.RequestTopUp(ctx, "alice", 1_000, notify.MessageRef{})
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}

	if _, err := rail.Check(ctx, "bob", handle.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign invoice, got %v", err)
	}
}

func TestConcurrentCheckRejected(t *testing.T) {
	api := newFakeInvoiceAPI()
	rail, _, _ := newInvoiceRail(api)
	ctx := context.Background()

	handle, err := rail.RequestTopUp(ctx, "alice", 1_000, notify.MessageRef{})
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}

	// Simulate an in-flight check holding the renter slot.
	ok, err := rail.guard.TryAcquire(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("acquire guard: %v %v", ok, err)
	}

	if _, err := rail.Check(ctx, "alice", handle.ID); !errors.Is(err, ErrCheckInProgress) {
		t.Fatalf("expected check-in-progress, got %v", err)
	}

	rail.guard.Release(ctx, "alice")
	if _, err := rail.Check(ctx, "alice", handle.ID); err != nil {
		t.Fatalf("check after release: %v", err)
	}
}

func TestSweepCreditsPaidOnce(t *testing.T) {
	api := newFakeInvoiceAPI()
	rail, balances, _ := newInvoiceRail(api)
	ctx := context.Background()

	handle, err := rail.RequestTopUp(ctx, "alice", 2_000, notify.MessageRef{})
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}
	api.markPaid(handle.ID)

	// The paid invoice observed on two consecutive sweeps credits once.
	if err := rail.Sweep(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if err := rail.Sweep(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if amount, _ := balances.Get(ctx, "alice"); amount != 2_000 {
		t.Fatalf("expected single credit of 2000, got %d", amount)
	}
}

func TestCleanupPurgesOldInvoices(t *testing.T) {
	api := newFakeInvoiceAPI()
	rail, _, _ := newInvoiceRail(api)
	ctx := context.Background()

	handle, err := rail.RequestTopUp(ctx, "alice", 1_000, notify.MessageRef{})
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}

	rail.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	if err := rail.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if len(api.cancelled) != 1 || api.cancelled[0] != handle.ID {
		t.Fatalf("expected stale invoice cancelled, got %v", api.cancelled)
	}
	if _, err := rail.pending.ByRenter(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected renter slot freed, got %v", err)
	}
}
