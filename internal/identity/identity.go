// Package identity produces the two identifiers a trainee carries for life:
// the sequential human-readable serial number printed on the card, and the
// random QR token used as the sole check-in credential.
package identity

import (
	"crypto/rand"
	"fmt"
)

const (
	prefix        = "TCH-"
	tokenLen      = 9
	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewToken returns a fresh check-in credential: "TCH-" followed by nine
// uppercase base-36 characters drawn from crypto/rand. Collisions are left to
// the database's unique constraint on qr_token; callers retry on conflict.
func NewToken() (string, error) {
	buf := make([]byte, tokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("identity: read random bytes: %w", err)
	}
	out := make([]byte, tokenLen)
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return prefix + string(out), nil
}

// SerialNumber formats the serial for the trainee registered after
// existingCount others: TCH-0001 for the first, zero-padded to four digits.
// Counts past 9999 widen rather than wrap.
//
// This is formatting only. Deriving existingCount from a row count is racy;
// serial allocation goes through the trainee_serial_seq sequence instead.
func SerialNumber(existingCount int) string {
	return fmt.Sprintf("%s%04d", prefix, existingCount+1)
}
