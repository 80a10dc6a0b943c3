package bits_test

import (
	"math/rand"
	"testing"

	"github.com/mewkiz/pepcode/internal/bits"
	"github.com/pkg/errors"
)

func TestFromBytes(t *testing.T) {
	golden := []struct {
		data []byte
		want string
	}{
		{data: nil, want: ""},
		{data: []byte{0x00}, want: "00000000"},
		{data: []byte{0x80}, want: "10000000"},
		{data: []byte{0xA5}, want: "10100101"},
		{data: []byte{0xFF, 0x01}, want: "1111111100000001"},
	}
	for _, g := range golden {
		got := bits.FromBytes(g.data)
		if got != g.want {
			t.Errorf("FromBytes(% X): expected %q, got %q", g.data, g.want, got)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 7, 8, 64, 1000} {
		data := make([]byte, n)
		rng.Read(data)
		got, err := bits.ToBytes(bits.FromBytes(data))
		if err != nil {
			t.Fatalf("n=%d: unexpected error; %v", n, err)
		}
		if string(got) != string(data) {
			t.Errorf("n=%d: round trip mismatch; expected % X, got % X", n, data, got)
		}
	}
}

func TestRoundTripBits(t *testing.T) {
	// Invariant: for any bitstring s with len(s)%8 == 0,
	// FromBytes(ToBytes(s)) == s.
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{0, 8, 16, 256} {
		buf := make([]byte, n)
		for i := range buf {
			if rng.Intn(2) == 1 {
				buf[i] = '1'
			} else {
				buf[i] = '0'
			}
		}
		s := string(buf)
		data, err := bits.ToBytes(s)
		if err != nil {
			t.Fatalf("n=%d: unexpected error; %v", n, err)
		}
		if got := bits.FromBytes(data); got != s {
			t.Errorf("n=%d: round trip mismatch; expected %q, got %q", n, s, got)
		}
	}
}

func TestToBytesInvalidLength(t *testing.T) {
	for _, s := range []string{"0", "0000000", "000000001"} {
		if _, err := bits.ToBytes(s); errors.Cause(err) != bits.ErrInvalidLength {
			t.Errorf("ToBytes(%q): expected ErrInvalidLength, got %v", s, err)
		}
	}
}

func TestToBytesInvalidChar(t *testing.T) {
	if _, err := bits.ToBytes("0000000x"); err == nil {
		t.Error("ToBytes: expected error for non-binary character, got nil")
	}
}

func TestFromUint(t *testing.T) {
	golden := []struct {
		x    uint64
		n    int
		want string
	}{
		{x: 0, n: 1, want: "00000000"},
		{x: 1, n: 2, want: "0000000000000001"},
		{x: 0xABCD, n: 2, want: "1010101111001101"},
	}
	for _, g := range golden {
		if got := bits.FromUint(g.x, g.n); got != g.want {
			t.Errorf("FromUint(%#x, %d): expected %q, got %q", g.x, g.n, g.want, got)
		}
	}
}
