package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Channel identifies how the platform delivers a login code.
type Channel string

const (
	// ChannelApp is the in-band delivery path. It cannot be observed
	// programmatically, so codes sent there are lost to us.
	ChannelApp Channel = "app"
	// ChannelSMS is the preferred out-of-band path readable through the
	// CodeSource.
	ChannelSMS Channel = "sms"
)

// CodeDelivery reports where a login code went and where the next resend
// would go.
type CodeDelivery struct {
	Channel Channel
	Next    Channel
}

var (
	// ErrNoAccount means the number has no platform account bound; deletion
	// is a success-equivalent no-op.
	ErrNoAccount = errors.New("no account bound to identity")

	// ErrInvalidCode rejects the submitted login code.
	ErrInvalidCode = errors.New("invalid login code")

	// ErrSecondFactorRequired means sign-in needs the account's second factor.
	ErrSecondFactorRequired = errors.New("second factor required")

	// ErrInvalidSecondFactor rejects the supplied second factor secret.
	ErrInvalidSecondFactor = errors.New("invalid second factor")

	// ErrBanned means the identity is banned at the platform level.
	ErrBanned = errors.New("identity banned by platform")

	// ErrConfirmationWait signals the platform converted the request into a
	// scheduled deletion pending out-of-band confirmation.
	ErrConfirmationWait = errors.New("deletion awaiting confirmation")

	// ErrAlreadyScheduled signals a deletion is already scheduled for the
	// account.
	ErrAlreadyScheduled = errors.New("deletion already scheduled")

	// ErrCodeNotDelivered means the out-of-band source has no code yet.
	ErrCodeNotDelivered = errors.New("code not delivered yet")
)

// RateLimitError carries the explicit wait the platform demanded. The
// workflow sleeps it once and restarts from the beginning.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Session is a connection scoped to one deletion attempt. It is opened at the
// start of the attempt and must be released on every exit path.
type Session interface {
	SendLoginCode(ctx context.Context) (CodeDelivery, error)
	ResendCode(ctx context.Context) (CodeDelivery, error)
	SignIn(ctx context.Context, code string) error
	VerifySecondFactor(ctx context.Context, secret string) error
	RequestAccountDeletion(ctx context.Context) error
	Close() error
}

// PlatformAPI opens platform sessions for an identity.
type PlatformAPI interface {
	Open(ctx context.Context, identityID string) (Session, error)
}

// CodeSource polls the out-of-band delivery path for the login code.
type CodeSource interface {
	FetchCode(ctx context.Context, identityID string) (string, error)
}

// AvailabilityProbe reports whether the platform side of an identity is
// clear, i.e. no account is currently bound to it.
type AvailabilityProbe interface {
	CheckIsIdentityFree(ctx context.Context, identityID string) (bool, error)
}
