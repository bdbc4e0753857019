package deletion

import (
	"context"
	"log/slog"
	"time"
)

const queueDepth = 256

// Service consumes deletion requests handed off by rental cancellation and
// expiry, runs the workflow, and keeps the delayed-deletion book for the
// daily finalize sweep.
type Service struct {
	workflow     *Workflow
	states       StateRepo
	probe        AvailabilityProbe
	secondFactor string
	queue        chan string
	logger       *slog.Logger
	now          func() time.Time
}

// NewService builds the deletion service. secondFactor is the service-owned
// 2FA password configured for platform accounts, empty when none is set.
func NewService(workflow *Workflow, states StateRepo, probe AvailabilityProbe, secondFactor string, logger *slog.Logger) *Service {
	return &Service{
		workflow:     workflow,
		states:       states,
		probe:        probe,
		secondFactor: secondFactor,
		queue:        make(chan string, queueDepth),
		logger:       logger,
		now:          time.Now,
	}
}

// Enqueue hands an identity to the deletion worker without blocking the
// caller. A full queue drops the request; the expiry sweep re-enqueues
// anything still undeleted.
func (s *Service) Enqueue(identityID string) {
	select {
	case s.queue <- identityID:
	default:
		s.logger.Warn("deletion queue full, dropping", "identity_id", identityID)
	}
}

// Run consumes the deletion queue until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case identityID := <-s.queue:
			s.process(ctx, identityID)
		}
	}
}

func (s *Service) process(ctx context.Context, identityID string) {
	result := s.workflow.Delete(ctx, identityID, s.secondFactor)

	s.logger.Info("deletion workflow finished",
		"identity_id", identityID,
		"outcome", string(result.Outcome),
		"reason", result.Reason,
		"restarts", result.Restarts,
	)

	state := State{
		IdentityID: identityID,
		Outcome:    result.Outcome,
		Reason:     result.Reason,
		Restarts:   result.Restarts,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.states.Put(ctx, state); err != nil {
		s.logger.Warn("persist deletion state", "identity_id", identityID, "error", err)
		return
	}

	// Only scheduled deletions need revisiting; other results are final once
	// persisted.
	if result.Outcome != OutcomeScheduled {
		if err := s.states.Delete(ctx, identityID); err != nil {
			s.logger.Warn("clear deletion state", "identity_id", identityID, "error", err)
		}
	}
}

// Finalize revisits identities in delayed-deletion state and closes them out
// once the platform side is clear. Runs on a daily sweep.
func (s *Service) Finalize(ctx context.Context) error {
	states, err := s.states.All(ctx)
	if err != nil {
		return err
	}
	for _, state := range states {
		if state.Outcome != OutcomeScheduled {
			continue
		}
		free, err := s.probe.CheckIsIdentityFree(ctx, state.IdentityID)
		if err != nil {
			s.logger.Warn("finalize probe", "identity_id", state.IdentityID, "error", err)
			continue
		}
		if !free {
			continue
		}
		if err := s.states.Delete(ctx, state.IdentityID); err != nil {
			s.logger.Warn("finalize state cleanup", "identity_id", state.IdentityID, "error", err)
			continue
		}
		s.logger.Info("scheduled deletion finalized", "identity_id", state.IdentityID)
	}
	return nil
}
