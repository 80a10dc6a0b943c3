// Package peptide maps bitstrings onto sequences of short amino-acid strings.
//
// The residue alphabet is the fixed ordered 8-tuple A,V,L,S,T,F,Y,E. Each
// residue encodes the 3-bit binary value of its position (A=000, V=001,
// L=010, S=011, T=100, F=101, Y=110, E=111), so the mapping between 3-bit
// groups and residues is a bijection.
package peptide

import (
	"strings"

	"github.com/pkg/errors"
)

// Alphabet is the residue alphabet; residue i encodes the 3-bit value i.
const Alphabet = "AVLSTFYE"

var (
	// ErrUnknownResidue is returned when a residue outside the alphabet is
	// encountered where a strict translation is required.
	ErrUnknownResidue = errors.New("peptide: unknown residue")
	// ErrIndexOverflow is returned when the index prefix is too narrow to
	// number every peptide.
	ErrIndexOverflow = errors.New("peptide: index prefix too narrow for peptide count")
)

// ResidueForBits returns the residue encoding the given 3-bit group.
func ResidueForBits(triplet string) (byte, bool) {
	if len(triplet) != 3 {
		return 0, false
	}
	v := 0
	for i := 0; i < 3; i++ {
		switch triplet[i] {
		case '1':
			v = v<<1 | 1
		case '0':
			v = v << 1
		default:
			return 0, false
		}
	}
	return Alphabet[v], true
}

// BitsForResidue returns the 3-bit group encoded by the given residue.
func BitsForResidue(aa byte) (string, bool) {
	i := strings.IndexByte(Alphabet, aa)
	if i < 0 {
		return "", false
	}
	var buf [3]byte
	for j := 0; j < 3; j++ {
		if i&(1<<uint(2-j)) != 0 {
			buf[j] = '1'
		} else {
			buf[j] = '0'
		}
	}
	return string(buf[:]), true
}

// A Mapping is the result of framing a bitstring into peptides.
type Mapping struct {
	// Peptide sequences in transmission order.
	Peptides []string
	// Number of zero bits appended to make the source bitstring length a
	// multiple of 3 (and, in padded mode, to fill the final peptide).
	PadBits int
	// Residues per peptide.
	PeptideLength int
	// Residues reserved at the front of each peptide for a big-endian index
	// prefix; 0 disables indexing.
	IndexAALength int
}

// IndexPrefix encodes idx as indexAALength residues, MSB residue first. The
// caller must ensure idx < 8^indexAALength.
func IndexPrefix(idx, indexAALength int) string {
	if indexAALength <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(indexAALength)
	for i := indexAALength - 1; i >= 0; i-- {
		sb.WriteByte(Alphabet[(idx>>(3*uint(i)))&7])
	}
	return sb.String()
}

// ParseIndex decodes the index prefix of pep. It reports false when the
// peptide is too short or a prefix residue is outside the alphabet.
func ParseIndex(pep string, indexAALength int) (idx int, ok bool) {
	if indexAALength <= 0 || len(pep) < indexAALength {
		return 0, false
	}
	for i := 0; i < indexAALength; i++ {
		v := strings.IndexByte(Alphabet, pep[i])
		if v < 0 {
			return 0, false
		}
		idx = idx<<3 | v
	}
	return idx, true
}

// FromBits frames a bitstring into peptides of peptideLength residues, the
// first indexAALength of which hold a peptide index when indexing is enabled.
//
// The bitstring is zero-padded to a multiple of 3 before translation; when
// padToFullPeptide is set the residue string is additionally padded with 'A'
// so every peptide carries a full payload. The returned Mapping records the
// total pad bit count.
func FromBits(bitstr string, peptideLength, indexAALength int, padToFullPeptide bool) (*Mapping, error) {
	if indexAALength < 0 || indexAALength > peptideLength {
		return nil, errors.Errorf("peptide: index length %d out of range for peptide length %d", indexAALength, peptideLength)
	}
	payloadLen := peptideLength - indexAALength
	if payloadLen <= 0 {
		return nil, errors.Errorf("peptide: peptide length %d must exceed index length %d", peptideLength, indexAALength)
	}

	// Pad bits to a multiple of 3.
	padBits := (3 - len(bitstr)%3) % 3
	if padBits > 0 {
		bitstr += strings.Repeat("0", padBits)
	}

	// Translate 3-bit groups to residues.
	var sb strings.Builder
	sb.Grow(len(bitstr) / 3)
	for i := 0; i < len(bitstr); i += 3 {
		aa, ok := ResidueForBits(bitstr[i : i+3])
		if !ok {
			return nil, errors.Errorf("peptide: invalid bit group %q at offset %d", bitstr[i:i+3], i)
		}
		sb.WriteByte(aa)
	}
	aaString := sb.String()

	if padToFullPeptide && len(aaString) > 0 {
		if rem := len(aaString) % payloadLen; rem != 0 {
			padAAs := payloadLen - rem
			aaString += strings.Repeat("A", padAAs)
			padBits += 3 * padAAs
		}
	}

	chunks := chunkString(aaString, payloadLen)
	var peptides []string
	if indexAALength > 0 {
		if len(chunks) > 1<<(3*uint(indexAALength)) {
			return nil, errors.Wrapf(ErrIndexOverflow, "%d peptides, %d index residues", len(chunks), indexAALength)
		}
		peptides = make([]string, len(chunks))
		for i, chunk := range chunks {
			peptides[i] = IndexPrefix(i, indexAALength) + chunk
		}
	} else {
		peptides = chunks
	}

	return &Mapping{
		Peptides:      peptides,
		PadBits:       padBits,
		PeptideLength: peptideLength,
		IndexAALength: indexAALength,
	}, nil
}

// ToBits inverts FromBits: index prefixes are stripped, payload residues are
// translated back to 3-bit groups and the recorded pad bits are trimmed.
func (m *Mapping) ToBits() (string, error) {
	var sb strings.Builder
	for _, pep := range m.Peptides {
		payload := pep
		if m.IndexAALength > 0 {
			if len(pep) < m.IndexAALength {
				continue
			}
			payload = pep[m.IndexAALength:]
		}
		for i := 0; i < len(payload); i++ {
			group, ok := BitsForResidue(payload[i])
			if !ok {
				return "", errors.Wrapf(ErrUnknownResidue, "%q", payload[i])
			}
			sb.WriteString(group)
		}
	}
	bitstr := sb.String()
	if m.PadBits > 0 {
		if m.PadBits > len(bitstr) {
			return "", errors.Errorf("peptide: pad bits %d exceed bitstring length %d", m.PadBits, len(bitstr))
		}
		bitstr = bitstr[:len(bitstr)-m.PadBits]
	}
	return bitstr, nil
}

// ToBitsFixed reconstructs a fixed-length bitstring from possibly missing,
// short, or misaligned peptides. Each of totalPeptides logical slots holds
// (peptideLength-indexAALength)*3 payload bits, initially zero. Indexed
// peptides are placed by their parsed prefix; unindexed peptides are placed
// positionally. Duplicate, out-of-range, and unparsable entries are
// discarded. The recorded pad bits are trimmed from the tail.
func ToBitsFixed(peptides []string, peptideLength, indexAALength, totalPeptides, padBits int) (string, error) {
	payloadLen := peptideLength - indexAALength
	if payloadLen <= 0 {
		return "", errors.Errorf("peptide: peptide length %d must exceed index length %d", peptideLength, indexAALength)
	}
	payloadBits := 3 * payloadLen
	zero := strings.Repeat("0", payloadBits)
	chunks := make([]string, totalPeptides)
	for i := range chunks {
		chunks[i] = zero
	}
	seen := make([]bool, totalPeptides)

	for pos, pep := range peptides {
		var idx int
		var payload string
		if indexAALength > 0 {
			parsed, ok := ParseIndex(pep, indexAALength)
			if !ok || parsed >= totalPeptides || seen[parsed] {
				continue
			}
			idx = parsed
			payload = pep[indexAALength:]
		} else {
			if pos >= totalPeptides || seen[pos] {
				continue
			}
			idx = pos
			payload = pep
		}

		var sb strings.Builder
		sb.Grow(payloadBits)
		for i := 0; i < len(payload) && sb.Len() < payloadBits; i++ {
			group, ok := BitsForResidue(payload[i])
			if !ok {
				group = "000"
			}
			sb.WriteString(group)
		}
		got := sb.String()
		if len(got) < payloadBits {
			got += strings.Repeat("0", payloadBits-len(got))
		} else if len(got) > payloadBits {
			got = got[:payloadBits]
		}
		chunks[idx] = got
		seen[idx] = true
	}

	bitstr := strings.Join(chunks, "")
	if padBits > 0 && padBits <= len(bitstr) {
		bitstr = bitstr[:len(bitstr)-padBits]
	}
	return bitstr, nil
}

// chunkString splits s into consecutive substrings of length size; the last
// chunk may be shorter.
func chunkString(s string, size int) []string {
	var chunks []string
	for i := 0; i < len(s); i += size {
		end := i + size
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}
