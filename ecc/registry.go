package ecc

// Named ECC profiles keep pipeline wiring simple: an RS profile selects
// (parity symbols, interleave depth), a fountain profile selects an
// overhead fraction.

import (
	"strings"

	"github.com/mewkiz/pepcode/internal/bits"
	"github.com/mewkiz/pepcode/peptide"
	"github.com/pkg/errors"
)

// rsProfiles maps profile names to (parity symbols, interleave depth).
var rsProfiles = map[string][2]int{
	"none":      {0, 1},
	"rs4":       {4, 1},
	"rs8":       {8, 1},
	"rs16":      {16, 1},
	"rs32":      {32, 1},
	"rs64":      {64, 1},
	"rs64_int4": {64, 4},
	"rs128":     {128, 1},
	"rs200":     {200, 1},
	"rs201":     {201, 1},
	"rs8_int4":  {8, 4},
}

// fountainProfiles maps profile names to overhead fractions.
var fountainProfiles = map[string]float64{
	"fnt05":  0.5,
	"fnt10":  1.0,
	"fnt20":  2.0,
	"fnt30":  3.0,
	"fnt50":  5.0,
	"fnt75":  7.5,
	"fnt100": 10.0,
	"fnt150": 15.0,
	"fnt200": 20.0,
}

// Profile resolves an RS profile name (case-insensitive) to its parity
// symbol count and interleave depth.
func Profile(name string) (paritySymbols, depth int, err error) {
	p, ok := rsProfiles[strings.ToLower(name)]
	if !ok {
		return 0, 0, errors.Errorf("ecc: unsupported profile %q", name)
	}
	return p[0], p[1], nil
}

// IsFountainProfile reports whether name is a known fountain profile.
func IsFountainProfile(name string) bool {
	_, ok := fountainProfiles[strings.ToLower(name)]
	return ok
}

// FountainOverhead resolves a fountain profile name to its overhead
// fraction, or fallback when the name is unknown.
func FountainOverhead(name string, fallback float64) float64 {
	if w, ok := fountainProfiles[strings.ToLower(name)]; ok {
		return w
	}
	return fallback
}

// EncodeProfile protects a peptide mapping with the named RS profile,
// interleaving the data peptides first when the profile carries a depth.
func EncodeProfile(mapping *peptide.Mapping, profile string) (*Encoded, error) {
	paritySymbols, depth, err := Profile(profile)
	if err != nil {
		return nil, err
	}

	peptides := mapping.Peptides
	if depth > 1 {
		peptides = InterleaveSequence(peptides, depth)
	}
	interleaved := &peptide.Mapping{
		Peptides:      peptides,
		PadBits:       mapping.PadBits,
		PeptideLength: mapping.PeptideLength,
		IndexAALength: mapping.IndexAALength,
	}
	enc, err := EncodePeptides(interleaved, paritySymbols, DefaultDataBlockSize)
	if err != nil {
		return nil, err
	}
	enc.InterleaveDepth = depth
	return enc, nil
}

// DecodeProfile decodes peptides protected by EncodeProfile, restoring the
// original data-peptide order.
func DecodeProfile(received []string, enc *Encoded, profile string) (*peptide.Mapping, error) {
	if _, _, err := Profile(profile); err != nil {
		return nil, err
	}
	recovered := DecodePeptides(received, enc)
	if enc.InterleaveDepth > 1 {
		recovered.Peptides = DeinterleaveSequence(recovered.Peptides, enc.InterleaveDepth)
	}
	return recovered, nil
}

// EncodeBits appends RS parity to a byte-aligned bitstring, treating each
// byte as one RS symbol.
func EncodeBits(bitstr string, paritySymbols int) (string, error) {
	if paritySymbols <= 0 {
		return bitstr, nil
	}
	msg, err := bits.ToBytes(bitstr)
	if err != nil {
		return "", err
	}
	if len(msg)+paritySymbols > maxCodeword {
		return "", errors.Wrapf(ErrTooManySymbols, "%d data and %d parity bytes", len(msg), paritySymbols)
	}
	return bits.FromBytes(rsEncode(msg, paritySymbols)), nil
}

// DecodeBits corrects an RS-protected byte-aligned bitstring and strips the
// parity. On decoder failure it returns the data without correction, so the
// pipeline keeps running even when correction is impossible.
func DecodeBits(bitstr string, paritySymbols int) (string, error) {
	if paritySymbols <= 0 {
		return bitstr, nil
	}
	msg, err := bits.ToBytes(bitstr)
	if err != nil {
		return "", err
	}
	corrected, err := rsDecode(msg, paritySymbols, nil)
	if err != nil {
		if paritySymbols <= len(msg) {
			return bits.FromBytes(msg[:len(msg)-paritySymbols]), nil
		}
		return bits.FromBytes(msg), nil
	}
	return bits.FromBytes(corrected[:len(corrected)-paritySymbols]), nil
}
