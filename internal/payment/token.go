package payment

import (
	"crypto/rand"
	"fmt"
)

// Reference tokens are embedded in payment memos and are the sole
// disambiguator between concurrent near-equal-amount orders, so they come
// from a CSPRNG. The alphabet avoids easily confused characters.
const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const tokenLength = 8

// NewReference generates a collision-resistant order reference token.
func NewReference() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
