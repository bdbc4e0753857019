package deletion

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Outcome is the terminal state of one deletion workflow run.
type Outcome string

const (
	OutcomeDeleted   Outcome = "deleted"
	OutcomeScheduled Outcome = "scheduled_7day"
	OutcomeFailed    Outcome = "failed"
	OutcomeBanned    Outcome = "banned"
)

// Failure reasons surfaced to callers. Every failure carries a specific,
// actionable reason.
const (
	ReasonOTP         = "OTP"
	ReasonInvalidOTP  = "InvalidOTP"
	ReasonInvalid2FA  = "Invalid2FAPassword"
	ReasonBanned      = "Banned"
	ReasonDeleteError = "DeleteError"
	ReasonRateLimited = "RateLimited"
	ReasonConnect     = "ConnectError"
	ReasonSignIn      = "SignInError"
	ReasonNoAccount   = "NoAccount"
)

// Result is the business outcome of a deletion run. It is returned instead of
// an error so callers can branch on the outcome.
type Result struct {
	Outcome  Outcome
	Reason   string
	Restarts int
}

// Success reports whether the platform account is gone or going.
func (r Result) Success() bool {
	return r.Outcome == OutcomeDeleted || r.Outcome == OutcomeScheduled
}

// BanRecorder adds a platform-banned identity to the set excluded from
// future rental.
type BanRecorder interface {
	Ban(ctx context.Context, identityID string) error
}

const (
	defaultOTPAttempts = 6
	defaultOTPInterval = 5 * time.Second
	defaultMaxRestarts = 3
)

// Workflow drives the OTP sign-in and deletion of the platform account bound
// to an identity.
type Workflow struct {
	platform PlatformAPI
	codes    CodeSource
	probe    AvailabilityProbe
	bans     BanRecorder
	logger   *slog.Logger

	otpAttempts int
	otpInterval time.Duration
	maxRestarts int
	sleep       func(ctx context.Context, d time.Duration)
}

// NewWorkflow builds a deletion workflow with the default retry budgets:
// six 5-second OTP polls and up to three rate-limit restarts.
func NewWorkflow(platform PlatformAPI, codes CodeSource, probe AvailabilityProbe, bans BanRecorder, logger *slog.Logger) *Workflow {
	return &Workflow{
		platform:    platform,
		codes:       codes,
		probe:       probe,
		bans:        bans,
		logger:      logger,
		otpAttempts: defaultOTPAttempts,
		otpInterval: defaultOTPInterval,
		maxRestarts: defaultMaxRestarts,
		sleep:       sleepCtx,
	}
}

// Delete removes or schedules removal of the account bound to the identity.
// A rate-limit signal with an explicit wait restarts the whole workflow from
// the beginning, at most maxRestarts times.
func (w *Workflow) Delete(ctx context.Context, identityID, secondFactor string) Result {
	free, err := w.probe.CheckIsIdentityFree(ctx, identityID)
	if err != nil {
		w.logger.Warn("availability probe", "identity_id", identityID, "error", err)
	} else if free {
		// Platform side already clear; nothing bound to delete.
		return Result{Outcome: OutcomeDeleted, Reason: ReasonNoAccount}
	}

	restarts := 0
	for {
		result, retryAfter, rateLimited := w.attempt(ctx, identityID, secondFactor)
		if !rateLimited {
			result.Restarts = restarts
			return result
		}
		if restarts >= w.maxRestarts {
			return Result{Outcome: OutcomeFailed, Reason: ReasonRateLimited, Restarts: restarts}
		}
		restarts++
		w.logger.Info("rate limited, restarting deletion", "identity_id", identityID, "wait", retryAfter, "restart", restarts)
		w.sleep(ctx, retryAfter)
	}
}

// attempt runs one pass of the state machine. The bool return reports a
// rate-limit restart request along with the wait the platform demanded.
func (w *Workflow) attempt(ctx context.Context, identityID, secondFactor string) (Result, time.Duration, bool) {
	session, err := w.platform.Open(ctx, identityID)
	if err != nil {
		if wait, limited := rateLimit(err); limited {
			return Result{}, wait, true
		}
		return Result{Outcome: OutcomeFailed, Reason: ReasonConnect}, 0, false
	}
	defer session.Close()

	delivery, err := session.SendLoginCode(ctx)
	if err != nil {
		if wait, limited := rateLimit(err); limited {
			return Result{}, wait, true
		}
		if errors.Is(err, ErrNoAccount) {
			return Result{Outcome: OutcomeDeleted, Reason: ReasonNoAccount}, 0, false
		}
		return Result{Outcome: OutcomeFailed, Reason: ReasonOTP}, 0, false
	}

	// The in-band channel cannot be observed, so when the platform offers the
	// out-of-band channel next, force exactly one resend to redirect there.
	if delivery.Channel != ChannelSMS && delivery.Next == ChannelSMS {
		if _, err := session.ResendCode(ctx); err != nil {
			if wait, limited := rateLimit(err); limited {
				return Result{}, wait, true
			}
			return Result{Outcome: OutcomeFailed, Reason: ReasonOTP}, 0, false
		}
	}

	code := w.pollCode(ctx, identityID)
	if code == "" {
		return Result{Outcome: OutcomeFailed, Reason: ReasonOTP}, 0, false
	}

	if err := session.SignIn(ctx, code); err != nil {
		switch {
		case errors.Is(err, ErrNoAccount):
			return Result{Outcome: OutcomeDeleted, Reason: ReasonNoAccount}, 0, false
		case errors.Is(err, ErrInvalidCode):
			return Result{Outcome: OutcomeFailed, Reason: ReasonInvalidOTP}, 0, false
		case errors.Is(err, ErrBanned):
			if banErr := w.bans.Ban(ctx, identityID); banErr != nil {
				w.logger.Warn("record banned identity", "identity_id", identityID, "error", banErr)
			}
			return Result{Outcome: OutcomeBanned, Reason: ReasonBanned}, 0, false
		case errors.Is(err, ErrSecondFactorRequired):
			if secondFactor != "" {
				if vErr := session.VerifySecondFactor(ctx, secondFactor); vErr != nil {
					if wait, limited := rateLimit(vErr); limited {
						return Result{}, wait, true
					}
					return Result{Outcome: OutcomeFailed, Reason: ReasonInvalid2FA}, 0, false
				}
			}
			// Without a secret the deletion request still goes out: the
			// platform converts an unauthenticated-but-valid request into a
			// 7-day scheduled deletion instead of rejecting it.
		default:
			if wait, limited := rateLimit(err); limited {
				return Result{}, wait, true
			}
			return Result{Outcome: OutcomeFailed, Reason: ReasonSignIn}, 0, false
		}
	}

	err = session.RequestAccountDeletion(ctx)
	switch {
	case err == nil:
		return Result{Outcome: OutcomeDeleted}, 0, false
	case errors.Is(err, ErrConfirmationWait), errors.Is(err, ErrAlreadyScheduled):
		return Result{Outcome: OutcomeScheduled}, 0, false
	default:
		if wait, limited := rateLimit(err); limited {
			return Result{}, wait, true
		}
		return Result{Outcome: OutcomeFailed, Reason: ReasonDeleteError}, 0, false
	}
}

// pollCode waits for the out-of-band code within the bounded budget
// (attempts × interval). The wait comes before each fetch: the code was
// requested an instant ago, so an immediate first poll would only race its
// delivery. An exhausted budget returns the empty string.
func (w *Workflow) pollCode(ctx context.Context, identityID string) string {
	for i := 0; i < w.otpAttempts; i++ {
		w.sleep(ctx, w.otpInterval)
		code, err := w.codes.FetchCode(ctx, identityID)
		if err == nil && code != "" {
			return code
		}
		if err != nil && !errors.Is(err, ErrCodeNotDelivered) {
			w.logger.Warn("fetch login code", "identity_id", identityID, "error", err)
		}
		if ctx.Err() != nil {
			return ""
		}
	}
	return ""
}

func rateLimit(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
