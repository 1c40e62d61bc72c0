// Package id provides the identifiers of ledger records.
//
// Records get UUIDv7 values, whose leading bits are a millisecond timestamp.
// Ordering by ID therefore follows insertion order, which the stores use to
// break ties between records sharing a timestamp.
package id

import (
	"bytes"

	"github.com/google/uuid"
)

// ID identifies products, price records, purchases, collections and counts.
type ID = uuid.UUID

// New returns a fresh UUIDv7. If the clock-based generator fails a random
// UUIDv4 is returned instead; it still sorts, but not by creation time.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse reads an ID from its textual form, as found in URLs and CLI flags.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is Parse for fixtures. It panics on malformed input.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID, which no stored record carries.
func Nil() ID {
	return uuid.Nil
}

func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Compare orders IDs byte-wise: for UUIDv7 that is creation order. Stores use
// it as the tie-breaker after timestamps so results are deterministic.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}
