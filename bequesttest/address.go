package bequesttest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/iov-one/bequest"
)

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) bequest.Address {
	raw := make([]byte, bequest.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := bequest.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not a valid address: %s", err)
	}
	return a
}

// DecodeAddr takes a hex encoded address string and returns it's raw
// representation. This function ensures that returned value is a valid
// address.
func DecodeAddr(t testing.TB, encoded string) bequest.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("cannot decode hex string: %s", err)
	}
	a := bequest.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded string is not a valid address: %s", err)
	}
	return a
}

// ParseAddress takes an address in a human readable format and returns
// its binary representation.
func ParseAddress(t testing.TB, encodedAddress string) bequest.Address {
	t.Helper()

	addr, err := bequest.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}

// SequenceAddr returns a deterministic address for given name. The same
// name always results in the same address, which makes test failures
// reproducible.
func SequenceAddr(name string) bequest.Address {
	return bequest.NewCondition("test", "account", []byte(name)).Address()
}

// SequenceAddrs returns n deterministic and distinct addresses.
func SequenceAddrs(prefix string, n int) []bequest.Address {
	res := make([]bequest.Address, n)
	for i := range res {
		res[i] = SequenceAddr(fmt.Sprintf("%s-%d", prefix, i))
	}
	return res
}
