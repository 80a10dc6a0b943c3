// Package bits provides conversions between byte slices and bitstrings.
//
// A bitstring is a string over {'0', '1'}. Bits are MSB-first within each
// byte, and multi-byte fields are big-endian. Every bitstring<->byte
// conversion in the module goes through this package. The fountain droplet
// header fields (seed, degree, CRC) are not: the fountain package packs and
// reads them big-endian with its own helpers.
package bits

import (
	"bytes"
	"strings"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// ErrInvalidLength is returned by ToBytes when the bitstring length is not a
// multiple of 8.
var ErrInvalidLength = errors.New("bits: bitstring length must be a multiple of 8")

// FromBytes converts data to a bitstring of length 8*len(data), MSB-first
// within each byte.
//
// Examples of byte input on the left and bitstring output on the right:
//
//	0x00 => "00000000"
//	0x80 => "10000000"
//	0xA5 => "10100101"
func FromBytes(data []byte) string {
	var sb strings.Builder
	sb.Grow(8 * len(data))
	br := bitio.NewReader(bytes.NewReader(data))
	for i := 0; i < 8*len(data); i++ {
		bit, err := br.ReadBool()
		if err != nil {
			// Reading from an in-memory buffer of known size cannot fail.
			break
		}
		if bit {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ToBytes converts a bitstring back to bytes. The bitstring length must be a
// multiple of 8.
func ToBytes(bits string) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "got %d bits", len(bits))
	}
	buf := new(bytes.Buffer)
	bw := bitio.NewWriter(buf)
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case '0':
			if err := bw.WriteBool(false); err != nil {
				return nil, errors.WithStack(err)
			}
		case '1':
			if err := bw.WriteBool(true); err != nil {
				return nil, errors.WithStack(err)
			}
		default:
			return nil, errors.Errorf("bits: invalid character %q at offset %d", bits[i], i)
		}
	}
	if err := bw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// FromUint converts the n*8-bit big-endian representation of x to a
// bitstring, for fixed-width integer fields.
func FromUint(x uint64, n int) string {
	b := make([]byte, 0, n)
	for i := n - 1; i >= 0; i-- {
		b = append(b, byte(x>>(8*uint(i))))
	}
	return FromBytes(b)
}

// Valid reports whether s contains only '0' and '1'.
func Valid(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}
	return true
}
