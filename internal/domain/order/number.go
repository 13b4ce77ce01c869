package order

import (
	"crypto/rand"
)

const (
	numberPrefix   = "ORD-"
	numberLength   = 10
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewNumber generates a human-readable order number such as ORD-7K2Q9XB4TN.
// Uniqueness is enforced by the database; the code space (36^10) makes a
// retry-worthy collision effectively unreachable.
func NewNumber() string {
	buf := make([]byte, numberLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return numberPrefix + string(buf)
}
