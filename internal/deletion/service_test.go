package deletion

import (
	"context"
	"testing"
	"time"

	"github.com/numrent/numrent/internal/logging"
)

func newService(platform PlatformAPI, codes CodeSource, probe AvailabilityProbe) (*Service, StateRepo) {
	w := NewWorkflow(platform, codes, probe, &fakeBans{}, logging.Discard())
	w.sleep = func(context.Context, time.Duration) {}
	states := NewMemoryStateRepo()
	svc := NewService(w, states, probe, "", logging.Discard())
	return svc, states
}

func stateFor(t *testing.T, states StateRepo, identityID string) (State, bool) {
	t.Helper()
	all, err := states.All(context.Background())
	if err != nil {
		t.Fatalf("list states: %v", err)
	}
	for _, s := range all {
		if s.IdentityID == identityID {
			return s, true
		}
	}
	return State{}, false
}

func TestProcessKeepsScheduledState(t *testing.T) {
	platform := &fakePlatform{build: func() *fakeSession {
		s := smsSession()
		s.deleteErr = ErrConfirmationWait
		return s
	}}
	svc, states := newService(platform, &fakeCodes{codes: []string{"12345"}}, &fakeProbe{})

	svc.process(context.Background(), "id-1")

	state, ok := stateFor(t, states, "id-1")
	if !ok {
		t.Fatal("scheduled deletion must stay recorded")
	}
	if state.Outcome != OutcomeScheduled {
		t.Fatalf("expected scheduled, got %+v", state)
	}
}

func TestProcessClearsFinalOutcomes(t *testing.T) {
	platform := &fakePlatform{build: smsSession}
	svc, states := newService(platform, &fakeCodes{codes: []string{"12345"}}, &fakeProbe{})

	svc.process(context.Background(), "id-1")

	if _, ok := stateFor(t, states, "id-1"); ok {
		t.Fatal("final outcome must not leave state behind")
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	svc, _ := newService(&fakePlatform{build: smsSession}, &fakeCodes{}, &fakeProbe{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < queueDepth+10; i++ {
			svc.Enqueue("id-1")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}

func TestFinalizeClosesOutFreedIdentities(t *testing.T) {
	probe := &fakeProbe{free: true}
	svc, states := newService(&fakePlatform{build: smsSession}, &fakeCodes{}, probe)
	ctx := context.Background()

	seed := []State{
		{IdentityID: "id-1", Outcome: OutcomeScheduled, UpdatedAt: time.Now().UTC()},
		{IdentityID: "id-2", Outcome: OutcomeScheduled, UpdatedAt: time.Now().UTC()},
	}
	for _, s := range seed {
		if err := states.Put(ctx, s); err != nil {
			t.Fatalf("seed state: %v", err)
		}
	}

	if err := svc.Finalize(ctx); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	all, err := states.All(ctx)
	if err != nil {
		t.Fatalf("list states: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected freed identities closed out, got %v", all)
	}
}

func TestFinalizeKeepsStillBoundIdentities(t *testing.T) {
	probe := &fakeProbe{free: false}
	svc, states := newService(&fakePlatform{build: smsSession}, &fakeCodes{}, probe)
	ctx := context.Background()

	state := State{IdentityID: "id-1", Outcome: OutcomeScheduled, UpdatedAt: time.Now().UTC()}
	if err := states.Put(ctx, state); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	if err := svc.Finalize(ctx); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if _, ok := stateFor(t, states, "id-1"); !ok {
		t.Fatal("still-bound identity must stay in the book")
	}
}
