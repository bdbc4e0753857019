package deletion

import "context"

// StaticPlatform simulates a platform with no account bound to any identity.
// Useful for development without platform credentials.
type StaticPlatform struct{}

// Open returns a session that reports no bound account.
func (StaticPlatform) Open(_ context.Context, _ string) (Session, error) {
	return staticSession{}, nil
}

type staticSession struct{}

func (staticSession) SendLoginCode(context.Context) (CodeDelivery, error) {
	return CodeDelivery{}, ErrNoAccount
}
func (staticSession) ResendCode(context.Context) (CodeDelivery, error) {
	return CodeDelivery{}, ErrNoAccount
}
func (staticSession) SignIn(context.Context, string) error { return ErrNoAccount }

func (staticSession) VerifySecondFactor(context.Context, string) error { return nil }

func (staticSession) RequestAccountDeletion(context.Context) error { return ErrNoAccount }

func (staticSession) Close() error { return nil }

// StaticCodeSource never delivers a code.
type StaticCodeSource struct{}

// FetchCode reports that no code has arrived.
func (StaticCodeSource) FetchCode(_ context.Context, _ string) (string, error) {
	return "", ErrCodeNotDelivered
}

// StaticProbe reports a fixed availability answer.
type StaticProbe struct {
	Free bool
}

// CheckIsIdentityFree returns the configured answer.
func (p StaticProbe) CheckIsIdentityFree(_ context.Context, _ string) (bool, error) {
	return p.Free, nil
}
