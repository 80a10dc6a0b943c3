// Package huffman implements an adaptive byte-alphabet Huffman codec.
//
// A codec is built from the empirical byte frequencies of the input, plus a
// pseudo end-of-stream symbol that terminates the bitstream and makes the
// byte-aligned padding unambiguous. The code table is side information: it is
// carried on the encoded structure and is not transmitted through the
// channel.
package huffman

import (
	"container/heap"
	"strings"

	"github.com/mewkiz/pepcode/internal/bits"
	"github.com/pkg/errors"
)

// ErrMalformed is returned when the decoder rejects the recovered bitstream.
var ErrMalformed = errors.New("huffman: malformed bitstream")

// eof is the pseudo symbol appended after the last source byte.
const eof = 256

// A Codec holds the prefix-free code derived from one input's byte
// distribution. Encode and decode must use the same codec.
type Codec struct {
	// Code of each symbol; index 256 is the end-of-stream symbol.
	codes [257]string
	// Root of the decode tree.
	root *node
}

type node struct {
	left, right *node
	sym         int // valid for leaves only
	leaf        bool
}

// weighted pairs a tree node with its frequency for the build heap. Ties
// break on the lowest contained symbol so the codec is deterministic.
type weighted struct {
	n      *node
	freq   int
	minSym int
}

type buildHeap []weighted

func (h buildHeap) Len() int { return len(h) }

func (h buildHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].minSym < h[j].minSym
}

func (h buildHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *buildHeap) Push(x interface{}) { *h = append(*h, x.(weighted)) }

func (h *buildHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NewCodec builds a codec from the empirical byte frequencies of data. The
// end-of-stream symbol is always present with frequency one.
func NewCodec(data []byte) *Codec {
	var freq [257]int
	for _, b := range data {
		freq[b]++
	}
	freq[eof] = 1

	h := make(buildHeap, 0, 257)
	for sym, f := range freq {
		if f > 0 {
			h = append(h, weighted{n: &node{sym: sym, leaf: true}, freq: f, minSym: sym})
		}
	}
	heap.Init(&h)
	for h.Len() > 1 {
		a := heap.Pop(&h).(weighted)
		b := heap.Pop(&h).(weighted)
		minSym := a.minSym
		if b.minSym < minSym {
			minSym = b.minSym
		}
		heap.Push(&h, weighted{
			n:      &node{left: a.n, right: b.n},
			freq:   a.freq + b.freq,
			minSym: minSym,
		})
	}

	c := &Codec{root: h[0].n}
	if c.root.leaf {
		// Degenerate tree: a single symbol still needs a 1-bit code.
		c.codes[c.root.sym] = "0"
		c.root = &node{left: c.root}
	} else {
		c.assign(c.root, "")
	}
	return c
}

func (c *Codec) assign(n *node, prefix string) {
	if n.leaf {
		c.codes[n.sym] = prefix
		return
	}
	c.assign(n.left, prefix+"0")
	c.assign(n.right, prefix+"1")
}

// An Encoded pairs a Huffman bitstream with the codec that produced it.
type Encoded struct {
	// Encoded bitstream; its length is a multiple of 8.
	Bits string
	// Codec used to produce Bits; required side information for decoding.
	Codec *Codec
}

// Encode builds a codec from data and encodes it. The bitstream is
// terminated by the end-of-stream code and zero-padded to a byte boundary.
func Encode(data []byte) *Encoded {
	c := NewCodec(data)
	var sb strings.Builder
	for _, b := range data {
		sb.WriteString(c.codes[b])
	}
	sb.WriteString(c.codes[eof])
	s := sb.String()
	if rem := len(s) % 8; rem != 0 {
		s += strings.Repeat("0", 8-rem)
	}
	return &Encoded{Bits: s, Codec: c}
}

// Decode inverts Encode. It fails with ErrMalformed when the bitstream is
// not byte-aligned, walks off the code tree, or ends before the
// end-of-stream code.
func Decode(enc *Encoded) ([]byte, error) {
	if len(enc.Bits)%8 != 0 {
		return nil, errors.Wrapf(ErrMalformed, "bitstream length %d not byte aligned", len(enc.Bits))
	}
	if !bits.Valid(enc.Bits) {
		return nil, errors.Wrap(ErrMalformed, "non-binary character in bitstream")
	}
	var out []byte
	n := enc.Codec.root
	for i := 0; i < len(enc.Bits); i++ {
		if enc.Bits[i] == '0' {
			n = n.left
		} else {
			n = n.right
		}
		if n == nil {
			return nil, errors.Wrapf(ErrMalformed, "no code at bit offset %d", i)
		}
		if n.leaf {
			if n.sym == eof {
				return out, nil
			}
			out = append(out, byte(n.sym))
			n = enc.Codec.root
		}
	}
	return nil, errors.Wrap(ErrMalformed, "bitstream ended before end-of-stream code")
}
