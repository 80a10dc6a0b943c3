// Package yinyang implements a redundant 2-bit-per-residue source codec over
// the 8-letter residue alphabet.
//
// Each 2-bit symbol maps to a pair of residues (00:F/E, 01:Y/S, 10:V/T,
// 11:L/A). The pairs partition the alphabet, so the decoder maps either pair
// member back to the same symbol and the encoder is free to pick whichever
// variant keeps the growing peptide within composition rules: bounded runs,
// bounded aromatic and glutamate content.
package yinyang

import (
	"strings"

	"github.com/mewkiz/pepcode/internal/bits"
	"github.com/mewkiz/pepcode/peptide"
	"github.com/pkg/errors"
)

// pairs maps each 2-bit symbol value to its two residue variants.
var pairs = [4][2]byte{
	{'F', 'E'}, // 00
	{'Y', 'S'}, // 01
	{'V', 'T'}, // 10
	{'L', 'A'}, // 11
}

// symbolOf maps a residue back to its 2-bit symbol value, or -1.
var symbolOf ['Z' + 1]int8

func init() {
	for i := range symbolOf {
		symbolOf[i] = -1
	}
	for sym, pair := range pairs {
		for _, aa := range pair {
			symbolOf[aa] = int8(sym)
		}
	}
}

func isAromatic(aa byte) bool { return aa == 'F' || aa == 'Y' }

func isStrongHydrophobic(aa byte) bool {
	return aa == 'V' || aa == 'L' || aa == 'F' || aa == 'Y'
}

// SchemeID identifies the pair assignment and rule set used by this encoder.
const SchemeID = "yy_pairs_v1"

// An Encoded holds Yin-Yang encoded peptides and the framing needed to
// invert them.
type Encoded struct {
	Peptides      []string
	PadBits       int
	PeptideLength int
	IndexAALength int
	// Length of the source payload; the decoded bytes are truncated to it.
	OriginalSize int
	SchemeID     string
}

// aromaticCap returns the maximum aromatic residues allowed in one payload.
func aromaticCap(payloadLen int) int {
	n := (payloadLen + 5) / 6
	if n < 1 {
		n = 1
	}
	if n > 3 {
		n = 3
	}
	return n
}

// glutamateCap returns the maximum 'E' residues allowed in one payload.
func glutamateCap(payloadLen int) int {
	n := (payloadLen + 2) / 3
	if n < 2 {
		n = 2
	}
	if n > 6 {
		n = 6
	}
	return n
}

// suffixRunLen returns the length of the run satisfying pred that would end
// at candidate if it were appended to current.
func suffixRunLen(current string, pred func(byte) bool, candidate byte) int {
	if !pred(candidate) {
		return 0
	}
	run := 1
	for i := len(current) - 1; i >= 0; i-- {
		if !pred(current[i]) {
			break
		}
		run++
	}
	return run
}

// penalty scores appending aa to the partial payload. Rule violations get a
// hard penalty; the soft terms bias toward polar variants.
func penalty(current string, aa byte, payloadLen int) float64 {
	var pen float64

	if suffixRunLen(current, func(x byte) bool { return x == aa }, aa) > 2 {
		pen += 1000
	}
	if suffixRunLen(current, isStrongHydrophobic, aa) > 2 {
		pen += 1000
	}
	if suffixRunLen(current, func(x byte) bool { return x == 'E' }, aa) > 2 {
		pen += 1000
	}

	aroCount := 0
	eCount := 0
	for i := 0; i < len(current); i++ {
		if isAromatic(current[i]) {
			aroCount++
		}
		if current[i] == 'E' {
			eCount++
		}
	}
	if isAromatic(aa) {
		aroCount++
	}
	if aa == 'E' {
		eCount++
	}
	if aroCount > aromaticCap(payloadLen) {
		pen += 1000
	}
	if eCount > glutamateCap(payloadLen) {
		pen += 1000
	}

	if isStrongHydrophobic(aa) {
		pen += 1.0
	}
	if isAromatic(aa) {
		pen += 0.5
	}
	if aa == 'E' {
		pen += 0.2
	}
	if aa == 'S' || aa == 'T' {
		pen -= 0.2
	}
	if len(current) > 0 && aa == current[len(current)-1] {
		pen += 0.8
	}
	return pen
}

// chooseVariant picks the pair member with the lower penalty; ties go to the
// first member.
func chooseVariant(pair [2]byte, current string, payloadLen int) byte {
	if penalty(current, pair[0], payloadLen) <= penalty(current, pair[1], payloadLen) {
		return pair[0]
	}
	return pair[1]
}

// Encode maps data to peptides at 2 bits per residue, choosing pair variants
// with the rule-based chooser. When indexAALength > 0 each peptide gets an
// index prefix in the 3-bit residue encoding.
func Encode(data []byte, peptideLength, indexAALength int) (*Encoded, error) {
	payloadLen := peptideLength - indexAALength
	if payloadLen <= 0 {
		return nil, errors.Errorf("yinyang: peptide length %d must exceed index length %d", peptideLength, indexAALength)
	}

	bitstr := bits.FromBytes(data)
	padBits := len(bitstr) % 2
	if padBits > 0 {
		bitstr += "0"
	}

	var payloads []string
	var current strings.Builder
	for i := 0; i < len(bitstr); i += 2 {
		sym := 0
		if bitstr[i] == '1' {
			sym |= 2
		}
		if bitstr[i+1] == '1' {
			sym |= 1
		}
		aa := chooseVariant(pairs[sym], current.String(), payloadLen)
		current.WriteByte(aa)
		if current.Len() >= payloadLen {
			payloads = append(payloads, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		payloads = append(payloads, current.String())
	}

	var peptides []string
	if indexAALength > 0 {
		if len(payloads) > 1<<(3*uint(indexAALength)) {
			return nil, errors.Wrapf(peptide.ErrIndexOverflow, "%d peptides, %d index residues", len(payloads), indexAALength)
		}
		peptides = make([]string, len(payloads))
		for i, p := range payloads {
			peptides[i] = peptide.IndexPrefix(i, indexAALength) + p
		}
	} else {
		peptides = payloads
	}

	return &Encoded{
		Peptides:      peptides,
		PadBits:       padBits,
		PeptideLength: peptideLength,
		IndexAALength: indexAALength,
		OriginalSize:  len(data),
		SchemeID:      SchemeID,
	}, nil
}

// Decode maps peptides back to bytes. Either member of a pair decodes to the
// pair's 2-bit symbol; residues outside the alphabet fail with
// peptide.ErrUnknownResidue.
func Decode(enc *Encoded) ([]byte, error) {
	var sb strings.Builder
	for _, pep := range enc.Peptides {
		payload := pep
		if enc.IndexAALength > 0 {
			if len(pep) < enc.IndexAALength {
				continue
			}
			payload = pep[enc.IndexAALength:]
		}
		for i := 0; i < len(payload); i++ {
			aa := payload[i]
			var sym int8 = -1
			if int(aa) < len(symbolOf) {
				sym = symbolOf[aa]
			}
			if sym < 0 {
				return nil, errors.Wrapf(peptide.ErrUnknownResidue, "%q in yin-yang mapping", aa)
			}
			if sym&2 != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
			if sym&1 != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	bitstr := sb.String()
	if enc.PadBits > 0 {
		if enc.PadBits > len(bitstr) {
			return nil, errors.Errorf("yinyang: pad bits %d exceed bitstring length %d", enc.PadBits, len(bitstr))
		}
		bitstr = bitstr[:len(bitstr)-enc.PadBits]
	}
	data, err := bits.ToBytes(bitstr)
	if err != nil {
		return nil, err
	}
	if len(data) > enc.OriginalSize {
		data = data[:enc.OriginalSize]
	}
	return data, nil
}
