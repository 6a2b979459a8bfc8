package thresholdtest

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/threshold"
)

// NewAddress returns a random, valid address.
func NewAddress() threshold.Address {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return threshold.NewAddress(b)
}

// NewPrincipals returns n distinct random addresses.
func NewPrincipals(n int) []threshold.Address {
	out := make([]threshold.Address, n)
	for i := range out {
		out[i] = NewAddress()
	}
	return out
}

// SequenceAddress returns a deterministic address for given number. It
// is meant to produce readable, stable fixtures.
func SequenceAddress(n uint64) threshold.Address {
	addr := make(threshold.Address, threshold.AddressLength)
	for i := threshold.AddressLength - 1; i >= 0 && n > 0; i-- {
		addr[i] = byte(n)
		n >>= 8
	}
	return addr
}

// ParseAddress takes an address in a human readable format and returns its
// binary representation. This function is a test helper that is using
// threshold.ParseAddress function functionality.
func ParseAddress(t testing.TB, encodedAddress string) threshold.Address {
	t.Helper()

	addr, err := threshold.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
