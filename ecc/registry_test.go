package ecc

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/mewkiz/pepcode/internal/bits"
)

func TestProfiles(t *testing.T) {
	golden := []struct {
		name   string
		parity int
		depth  int
	}{
		{name: "none", parity: 0, depth: 1},
		{name: "rs4", parity: 4, depth: 1},
		{name: "rs8", parity: 8, depth: 1},
		{name: "rs16", parity: 16, depth: 1},
		{name: "rs64_int4", parity: 64, depth: 4},
		{name: "rs8_int4", parity: 8, depth: 4},
		{name: "RS32", parity: 32, depth: 1}, // case-insensitive
	}
	for _, g := range golden {
		parity, depth, err := Profile(g.name)
		if err != nil {
			t.Fatalf("Profile(%q): unexpected error; %v", g.name, err)
		}
		if parity != g.parity || depth != g.depth {
			t.Errorf("Profile(%q): expected (%d, %d), got (%d, %d)", g.name, g.parity, g.depth, parity, depth)
		}
	}
	if _, _, err := Profile("rs12345"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestFountainProfiles(t *testing.T) {
	golden := map[string]float64{
		"fnt05": 0.5, "fnt20": 2.0, "fnt100": 10.0, "fnt200": 20.0,
	}
	for name, want := range golden {
		if got := FountainOverhead(name, -1); got != want {
			t.Errorf("FountainOverhead(%q): expected %v, got %v", name, want, got)
		}
		if !IsFountainProfile(name) {
			t.Errorf("IsFountainProfile(%q): expected true", name)
		}
	}
	if got := FountainOverhead("rs4", 0.25); got != 0.25 {
		t.Errorf("expected fallback 0.25, got %v", got)
	}
	if IsFountainProfile("rs4") {
		t.Error("IsFountainProfile(rs4): expected false")
	}
}

func TestInterleaveRoundTrip(t *testing.T) {
	for _, depth := range []int{1, 2, 3, 4, 7} {
		for _, n := range []int{0, 1, 5, 12, 13} {
			items := make([]int, n)
			for i := range items {
				items[i] = i
			}
			got := DeinterleaveSequence(InterleaveSequence(items, depth), depth)
			for i := range got {
				if got[i] != i {
					t.Fatalf("depth=%d n=%d: round trip mismatch at %d: %v", depth, n, i, got)
				}
			}
		}
	}
}

func TestInterleaveStride(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := InterleaveSequence(items, 3)
	want := []string{"a", "d", "g", "b", "e", "c", "f"}
	if strings.Join(got, "") != strings.Join(want, "") {
		t.Errorf("expected %v, got %v", want, got)
	}

	pos := InterleavedIndex(7, 3)
	for orig, p := range pos {
		if got[p] != items[orig] {
			t.Errorf("InterleavedIndex: position %d of item %d does not hold it", p, orig)
		}
	}
}

func TestInterleaveBitsRoundTrip(t *testing.T) {
	s := "0101110001011100101"
	for _, depth := range []int{1, 2, 4} {
		if got := DeinterleaveBits(InterleaveBits(s, depth), depth); got != s {
			t.Errorf("depth=%d: round trip mismatch; got %q", depth, got)
		}
	}
}

func TestEncodeProfileInterleaved(t *testing.T) {
	m := mustMapping(t, []byte("interleaved profile round trip payload data"), 6, 0)
	enc, err := EncodeProfile(m, "rs8_int4")
	if err != nil {
		t.Fatal(err)
	}
	if enc.InterleaveDepth != 4 {
		t.Fatalf("expected depth 4, got %d", enc.InterleaveDepth)
	}
	got, err := DecodeProfile(enc.Peptides, enc, "rs8_int4")
	if err != nil {
		t.Fatal(err)
	}
	if !equalPeptides(got.Peptides, m.Peptides) {
		t.Error("interleaved round trip altered peptide order")
	}
}

func TestBitsRS(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	data := make([]byte, 48)
	rng.Read(data)
	s := bits.FromBytes(data)

	encoded, err := EncodeBits(s, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) != len(s)+8*8 {
		t.Fatalf("expected %d bits, got %d", len(s)+64, len(encoded))
	}

	// Clean decode.
	got, err := DecodeBits(encoded, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Error("clean decode mismatch")
	}

	// Correctable byte errors.
	raw, err := bits.ToBytes(encoded)
	if err != nil {
		t.Fatal(err)
	}
	raw[0] ^= 0xFF
	raw[9] ^= 0xFF
	got, err = DecodeBits(bits.FromBytes(raw), 8)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Error("corrupted decode mismatch")
	}

	// Parity 0 passes through.
	got, err = DecodeBits(s, 0)
	if err != nil || got != s {
		t.Errorf("pass-through mismatch; %v", err)
	}
}
