// Package fountain implements an LT (Luby Transform) fountain codec with
// CRC-protected droplets.
//
// The payload is split into k fixed-size source symbols. The first k
// droplets are systematic copies of the source symbols; additional droplets
// XOR a degree-sized subset of symbols, with degrees drawn from a robust
// soliton distribution. Droplet sizing is derived from the peptide geometry
// so each droplet maps onto a whole number of peptides; a single damaged
// peptide then invalidates exactly one droplet's CRC instead of smearing
// across the stream.
package fountain

import (
	"math"
	"math/rand"

	"github.com/mewkiz/pepcode/internal/bits"
	"github.com/pkg/errors"
)

// Params configures the fountain codec. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	// Peptide geometry the droplet stream will be framed into.
	PeptideLength int
	IndexAALength int
	// Requested payload bytes per droplet; clamped to droplet capacity.
	SymbolSize int
	// Overhead factor: droplet count is max(max(8,k), ceil(max(8,k)*(1+Overhead))).
	Overhead float64
	// Header field widths in bytes.
	SeedBytes   int
	DegreeBytes int
	CRCBytes    int
	// Robust soliton parameters.
	C     float64
	Delta float64
	// Seed of the encoder's main PRNG stream.
	Seed int64
	// Maximum accepted payload size.
	MaxBytes int
}

// DefaultParams returns the parameters used by the pipeline defaults.
func DefaultParams() Params {
	return Params{
		PeptideLength: 18,
		SymbolSize:    17,
		Overhead:      0.1,
		SeedBytes:     4,
		DegreeBytes:   2,
		CRCBytes:      4,
		C:             0.1,
		Delta:         0.5,
		MaxBytes:      1 << 20,
	}
}

// An Encoded holds the droplet bitstream and the geometry needed to decode
// it.
type Encoded struct {
	// Big-endian bitstring of all droplets, concatenated.
	Bits string
	// Bytes per droplet.
	DropletSize int
	// Number of droplets in Bits.
	DropletCount int
	// Payload bytes per droplet.
	SymbolSize int
	// Zero bytes between payload and CRC.
	PadBytes int
	// Number of source symbols.
	K int
	// Length of the source payload; decoded bytes are truncated to it.
	OriginalSize int
	// Header geometry.
	SeedBytes   int
	DegreeBytes int
	CRCBytes    int
	// Whether the requested symbol size was clamped to droplet capacity.
	Clamped bool
}

// Encode splits data into source symbols and emits the droplet bitstream.
func Encode(data []byte, p Params) (*Encoded, error) {
	if p.MaxBytes > 0 && len(data) > p.MaxBytes {
		return nil, errors.Errorf("fountain: payload of %d bytes exceeds limit %d", len(data), p.MaxBytes)
	}
	payloadBits := 3 * (p.PeptideLength - p.IndexAALength)
	if payloadBits <= 0 {
		return nil, errors.Errorf("fountain: peptide length %d must exceed index length %d", p.PeptideLength, p.IndexAALength)
	}

	// One droplet must span a whole number of whole peptides: its byte size
	// is lcm(payload bits, 8)/8.
	dropletSize := payloadBits / gcd(payloadBits, 8)
	capacity := dropletSize - p.SeedBytes - p.DegreeBytes - p.CRCBytes
	if capacity < 1 {
		return nil, errors.Errorf("fountain: droplet of %d bytes cannot fit headers; reduce seed/degree/crc bytes or increase peptide payload", dropletSize)
	}
	symbolSize := p.SymbolSize
	clamped := false
	if symbolSize > capacity {
		symbolSize = capacity
		clamped = true
	}
	if symbolSize < 1 {
		return nil, errors.Errorf("fountain: symbol size %d must be positive", symbolSize)
	}
	padBytes := capacity - symbolSize

	symbols, originalSize := splitSymbols(data, symbolSize)
	k := len(symbols)
	cdf := degreeCDF(k, p.C, p.Delta)

	baseline := k
	if baseline < 8 {
		baseline = 8
	}
	dropletCount := int(math.Ceil(float64(baseline) * (1 + p.Overhead)))
	if dropletCount < baseline {
		dropletCount = baseline
	}

	rng := rand.New(rand.NewSource(p.Seed))
	maxDegree := uint64(1)<<(8*uint(p.DegreeBytes)) - 1
	seedMask := ^uint64(0)
	if p.SeedBytes < 8 {
		seedMask = uint64(1)<<(8*uint(p.SeedBytes)) - 1
	}

	droplets := make([]byte, 0, dropletCount*dropletSize)

	// Systematic prefix: droplet i carries source symbol i verbatim.
	for i := 0; i < k; i++ {
		indices := indicesFromSeed(uint64(i), 1, k)
		droplets = append(droplets, buildDroplet(uint64(i), 1, indices, symbols, symbolSize, padBytes, p.SeedBytes, p.DegreeBytes, p.CRCBytes)...)
	}
	for n := k; n < dropletCount; n++ {
		seed := rng.Uint64() & seedMask
		dropletRNG := rand.New(rand.NewSource(int64(seed)))
		degree := sampleDegree(dropletRNG, cdf)
		if degree < 1 {
			degree = 1
		}
		if degree > k {
			degree = k
		}
		if uint64(degree) > maxDegree {
			degree = int(maxDegree)
		}
		indices := indicesFromSeed(seed, degree, k)
		droplets = append(droplets, buildDroplet(seed, degree, indices, symbols, symbolSize, padBytes, p.SeedBytes, p.DegreeBytes, p.CRCBytes)...)
	}

	return &Encoded{
		Bits:         bits.FromBytes(droplets),
		DropletSize:  dropletSize,
		DropletCount: dropletCount,
		SymbolSize:   symbolSize,
		PadBytes:     padBytes,
		K:            k,
		OriginalSize: originalSize,
		SeedBytes:    p.SeedBytes,
		DegreeBytes:  p.DegreeBytes,
		CRCBytes:     p.CRCBytes,
		Clamped:      clamped,
	}, nil
}

// splitSymbols cuts data into symbols of symbolSize bytes, zero-padding the
// last. An empty payload still yields one symbol.
func splitSymbols(data []byte, symbolSize int) (symbols [][]byte, originalSize int) {
	originalSize = len(data)
	k := (originalSize + symbolSize - 1) / symbolSize
	if k == 0 {
		k = 1
	}
	padded := make([]byte, k*symbolSize)
	copy(padded, data)
	symbols = make([][]byte, k)
	for i := 0; i < k; i++ {
		symbols[i] = padded[i*symbolSize : (i+1)*symbolSize]
	}
	return symbols, originalSize
}

// Decode recovers the source payload by peeling: droplets referencing a
// single unresolved symbol resolve it, and the resolved symbol is XORed out
// of every other droplet that references it. Decode returns nil when any
// source symbol stays unresolved; it never returns an error for damaged
// droplets, which simply fail their CRC and are dropped.
func Decode(enc *Encoded) []byte {
	stream, err := bits.ToBytes(enc.Bits)
	if err != nil {
		return nil
	}
	if total := enc.DropletSize * enc.DropletCount; len(stream) > total {
		stream = stream[:total]
	}

	type droplet struct {
		indices map[int]bool
		payload []byte
	}
	var droplets []*droplet
	byIndex := make([][]int, enc.K)

	for i := 0; i+enc.DropletSize <= len(stream); i += enc.DropletSize {
		packet := stream[i : i+enc.DropletSize]
		indices, payload, ok := parseDroplet(packet, enc.K, enc.SymbolSize, enc.PadBytes, enc.SeedBytes, enc.DegreeBytes, enc.CRCBytes)
		if !ok {
			continue
		}
		d := &droplet{indices: make(map[int]bool, len(indices)), payload: append([]byte(nil), payload...)}
		for _, idx := range indices {
			d.indices[idx] = true
		}
		id := len(droplets)
		droplets = append(droplets, d)
		for _, idx := range indices {
			byIndex[idx] = append(byIndex[idx], id)
		}
	}

	recovered := make([][]byte, enc.K)
	var queue []int
	for id, d := range droplets {
		if len(d.indices) == 1 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		d := droplets[id]
		if len(d.indices) != 1 {
			continue
		}
		var symIdx int
		for idx := range d.indices {
			symIdx = idx
		}
		if recovered[symIdx] == nil {
			recovered[symIdx] = d.payload
		}
		for _, otherID := range byIndex[symIdx] {
			if otherID == id {
				continue
			}
			other := droplets[otherID]
			if !other.indices[symIdx] {
				continue
			}
			xorInto(other.payload, recovered[symIdx])
			delete(other.indices, symIdx)
			if len(other.indices) == 1 {
				queue = append(queue, otherID)
			}
		}
		byIndex[symIdx] = nil
	}

	out := make([]byte, 0, enc.K*enc.SymbolSize)
	for _, sym := range recovered {
		if sym == nil {
			return nil
		}
		out = append(out, sym...)
	}
	if len(out) > enc.OriginalSize {
		out = out[:enc.OriginalSize]
	}
	return out
}

// gcd returns the greatest common divisor of a and b.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
