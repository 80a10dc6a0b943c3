package ecc

// Peptide-level Reed-Solomon: each peptide is one RS symbol row, and parity
// is computed column-wise over the byte-packed rows of a block. An entire
// corrupted peptide therefore costs a single symbol error per column.

import (
	"strings"

	"github.com/mewkiz/pepcode/internal/bits"
	"github.com/mewkiz/pepcode/peptide"
	"github.com/pkg/errors"
)

// Default block geometry.
const (
	// DefaultDataBlockSize is the number of data peptides per RS block.
	DefaultDataBlockSize = 24
)

// A PeptideMeta records the block-level position of one transmitted
// peptide.
type PeptideMeta struct {
	BlockID      int
	IndexInBlock int
	IsParity     bool
}

// A SymbolPadding records how one peptide was padded to a byte-aligned RS
// symbol. For parity peptides the pad bits carry real parity information
// beyond the L*3 residue bits, so the exact bits are kept, not just their
// count.
type SymbolPadding struct {
	// Meaningful data bits in the symbol (residue count * 3).
	DataBits int
	// Total bit length after byte padding; always a multiple of 8.
	PaddedBits int
	// Bit offset where padding starts.
	PadOffset int
	// The exact padding bits that were inserted.
	PadBits string
}

// An Encoded holds RS-protected peptides and the side information needed to
// decode them.
type Encoded struct {
	// Data peptides followed by per-block parity peptides, in block order
	// (interleaved order when InterleaveDepth > 1).
	Peptides []string
	// Residue length of each data peptide, in RS order.
	DataLengths []int
	// Pad bits recorded by the bits-to-peptides mapping.
	PadBits int
	// Target peptide length used for symbol padding.
	PeptideLength int
	// Parity peptides per block.
	ParitySymbols int
	// Residues reserved for the index prefix.
	IndexAALength int
	// Applied interleave depth.
	InterleaveDepth int
	// Per-peptide block positions, aligned with Peptides.
	Metadata []PeptideMeta
	// Data peptides per RS block.
	DataBlockSize int
	// Per-peptide padding records, aligned with Peptides.
	Padding []SymbolPadding
}

// peptideToSymbolBytes packs a peptide into a fixed-length byte symbol.
// Unknown residues map to zero bit groups and overlong peptides are trimmed
// to targetLen, so channel damage never aborts the packing. When padInfo is
// non-nil its recorded padding is reapplied so the byte-aligned symbol is
// reconstructed exactly, which matters when targetLen*3 is not a multiple
// of 8 and the padding carries parity bits.
func peptideToSymbolBytes(pep string, targetLen int, padInfo *SymbolPadding) ([]byte, SymbolPadding) {
	symbolBits := 3 * targetLen
	trimmed := pep
	if len(trimmed) > targetLen {
		trimmed = trimmed[:targetLen]
	}
	dataBits := 3 * len(trimmed)

	var sb strings.Builder
	sb.Grow(symbolBits)
	for i := 0; i < len(trimmed); i++ {
		group, ok := peptide.BitsForResidue(trimmed[i])
		if !ok {
			group = "000"
		}
		sb.WriteString(group)
	}
	bitstr := sb.String()
	if len(bitstr) < symbolBits {
		bitstr += strings.Repeat("0", symbolBits-len(bitstr))
	} else if len(bitstr) > symbolBits {
		bitstr = bitstr[:symbolBits]
	}

	var info SymbolPadding
	if padInfo == nil {
		padLen := (8 - symbolBits%8) % 8
		pad := strings.Repeat("0", padLen)
		bitstr += pad
		info = SymbolPadding{
			DataBits:   dataBits,
			PaddedBits: len(bitstr),
			PadOffset:  symbolBits,
			PadBits:    pad,
		}
	} else {
		info = *padInfo
		padLen := info.PaddedBits - info.PadOffset
		if padLen < 0 {
			padLen = 0
		}
		pad := info.PadBits
		if pad == "" {
			pad = strings.Repeat("0", padLen)
		}
		if len(pad) > padLen {
			pad = pad[:padLen]
		}
		base := bitstr
		if info.PadOffset < len(base) {
			base = base[:info.PadOffset]
		}
		bitstr = base + pad
		if len(bitstr) < info.PaddedBits {
			bitstr += strings.Repeat("0", info.PaddedBits-len(bitstr))
		} else if len(bitstr) > info.PaddedBits {
			bitstr = bitstr[:info.PaddedBits]
		}
	}
	if rem := len(bitstr) % 8; rem != 0 {
		bitstr += strings.Repeat("0", 8-rem)
		info.PaddedBits = len(bitstr)
	}

	symbol, err := bits.ToBytes(bitstr)
	if err != nil {
		// The bitstring is built from "0"/"1" groups at byte alignment;
		// conversion cannot fail.
		symbol = make([]byte, len(bitstr)/8)
	}
	return symbol, info
}

// symbolBytesToPeptide unpacks a byte symbol back into a peptide of aaLen
// residues, dropping the recorded padding bits first. Unrecognized bit
// groups map to 'A'.
func symbolBytesToPeptide(symbol []byte, aaLen, targetLen int, padInfo *SymbolPadding) string {
	bitstr := bits.FromBytes(symbol)
	if padInfo != nil {
		if len(bitstr) > padInfo.PaddedBits {
			bitstr = bitstr[:padInfo.PaddedBits]
		}
		padLen := padInfo.PaddedBits - padInfo.PadOffset
		if padLen > 0 && padInfo.PadOffset < len(bitstr) {
			end := padInfo.PadOffset + padLen
			if end > len(bitstr) {
				end = len(bitstr)
			}
			bitstr = bitstr[:padInfo.PadOffset] + bitstr[end:]
		}
	} else {
		total := 3 * targetLen
		if len(bitstr) < total {
			bitstr += strings.Repeat("0", total-len(bitstr))
		}
	}
	if want := 3 * aaLen; len(bitstr) > want {
		bitstr = bitstr[:want]
	}

	var sb strings.Builder
	sb.Grow(aaLen)
	for i := 0; i+3 <= len(bitstr); i += 3 {
		aa, ok := peptide.ResidueForBits(bitstr[i : i+3])
		if !ok {
			aa = 'A'
		}
		sb.WriteByte(aa)
	}
	return sb.String()
}

// chunkPeptides splits peptides into blocks of at most k entries.
func chunkPeptides[T any](items []T, k int) [][]T {
	var blocks [][]T
	for i := 0; i < len(items); i += k {
		end := i + k
		if end > len(items) {
			end = len(items)
		}
		blocks = append(blocks, items[i:end])
	}
	return blocks
}

// encodeBlock RS-encodes one block of data peptides column-wise and returns
// the parity peptides with padding records for both data and parity rows.
func encodeBlock(block []string, paritySymbols, targetLen int) (parity []string, dataPadding, parityPadding []SymbolPadding, err error) {
	if paritySymbols <= 0 || len(block) == 0 {
		return nil, nil, nil, nil
	}
	if len(block)+paritySymbols > maxCodeword {
		return nil, nil, nil, errors.Wrapf(ErrTooManySymbols, "data=%d, parity=%d, limit=%d", len(block), paritySymbols, maxCodeword)
	}

	symbols := make([][]byte, len(block))
	dataPadding = make([]SymbolPadding, len(block))
	for i, pep := range block {
		symbols[i], dataPadding[i] = peptideToSymbolBytes(pep, targetLen, nil)
	}
	width := len(symbols[0])

	parityMatrix := make([][]byte, paritySymbols)
	for i := range parityMatrix {
		parityMatrix[i] = make([]byte, width)
	}
	column := make([]byte, len(block))
	for c := 0; c < width; c++ {
		for r, sym := range symbols {
			column[r] = sym[c]
		}
		encoded := rsEncode(column, paritySymbols)
		for p, val := range encoded[len(block):] {
			parityMatrix[p][c] = val
		}
	}

	parity = make([]string, paritySymbols)
	parityPadding = make([]SymbolPadding, paritySymbols)
	for p, row := range parityMatrix {
		rowBits := bits.FromBytes(row)
		padOffset := 3 * targetLen
		pad := ""
		if len(rowBits) > padOffset {
			pad = rowBits[padOffset:]
		}
		parityPadding[p] = SymbolPadding{
			DataBits:   padOffset,
			PaddedBits: len(rowBits),
			PadOffset:  padOffset,
			PadBits:    pad,
		}
		parity[p] = symbolBytesToPeptide(row, targetLen, targetLen, nil)
	}
	return parity, dataPadding, parityPadding, nil
}

// decodeBlock reassembles and corrects one block. Erasure detection flags a
// row when it is empty, overlong, contains unknown residues, or (with
// indexAALength > 0) carries a wrong index prefix for its slot. On RS
// failure for a column, the raw column bytes pass through uncorrected.
func decodeBlock(blockPeptides []string, paritySymbols, targetLen int, dataLengths []int, blockPadding []*SymbolPadding, indexAALength, indexBase int) []string {
	dataCount := len(dataLengths)
	if paritySymbols <= 0 {
		out := blockPeptides
		if len(out) > dataCount {
			out = out[:dataCount]
		}
		return append([]string(nil), out...)
	}

	expected := dataCount + paritySymbols
	aligned := make([]string, expected)
	copy(aligned, blockPeptides)

	var erasePos []int
	maxIndex := 0
	if indexAALength > 0 {
		maxIndex = 1 << (3 * uint(indexAALength))
	}
	for idx, pep := range aligned {
		switch {
		case pep == "":
			erasePos = append(erasePos, idx)
			continue
		case len(pep) > targetLen:
			erasePos = append(erasePos, idx)
			continue
		}
		unknown := false
		for i := 0; i < len(pep); i++ {
			if _, ok := peptide.BitsForResidue(pep[i]); !ok {
				unknown = true
				break
			}
		}
		if unknown {
			erasePos = append(erasePos, idx)
			continue
		}
		if indexAALength > 0 && idx < dataCount {
			parsed, ok := peptide.ParseIndex(pep, indexAALength)
			want := indexBase + idx
			if !ok || want >= maxIndex || parsed != want {
				erasePos = append(erasePos, idx)
			}
		}
	}

	symbols := make([][]byte, expected)
	for idx, pep := range aligned {
		var padInfo *SymbolPadding
		if idx < len(blockPadding) {
			padInfo = blockPadding[idx]
		}
		symbols[idx], _ = peptideToSymbolBytes(pep, targetLen, padInfo)
	}
	width := 0
	if len(symbols) > 0 {
		width = len(symbols[0])
	}

	recovered := make([][]byte, dataCount)
	for i := range recovered {
		recovered[i] = make([]byte, width)
	}
	column := make([]byte, expected)
	for c := 0; c < width; c++ {
		for r, sym := range symbols {
			column[r] = sym[c]
		}
		corrected, err := rsDecode(column, paritySymbols, erasePos)
		if err != nil {
			corrected = column
		}
		for r := 0; r < dataCount; r++ {
			recovered[r][c] = corrected[r]
		}
	}

	out := make([]string, dataCount)
	for r := 0; r < dataCount; r++ {
		var padInfo *SymbolPadding
		if r < len(blockPadding) {
			padInfo = blockPadding[r]
		}
		out[r] = symbolBytesToPeptide(recovered[r], dataLengths[r], targetLen, padInfo)
	}
	return out
}

// EncodePeptides applies RS parity where each peptide is one RS symbol. The
// mapping's peptides become data rows in blocks of blockSize; each block
// appends paritySymbols parity peptides.
func EncodePeptides(mapping *peptide.Mapping, paritySymbols, blockSize int) (*Encoded, error) {
	if blockSize <= 0 {
		blockSize = DefaultDataBlockSize
	}
	if len(mapping.Peptides) == 0 {
		return &Encoded{
			PadBits:         mapping.PadBits,
			PeptideLength:   mapping.PeptideLength,
			IndexAALength:   mapping.IndexAALength,
			InterleaveDepth: 1,
			DataBlockSize:   blockSize,
		}, nil
	}

	dataLengths := make([]int, len(mapping.Peptides))
	for i, pep := range mapping.Peptides {
		dataLengths[i] = len(pep)
	}
	targetLen := mapping.PeptideLength

	enc := &Encoded{
		DataLengths:     dataLengths,
		PadBits:         mapping.PadBits,
		PeptideLength:   targetLen,
		ParitySymbols:   paritySymbols,
		IndexAALength:   mapping.IndexAALength,
		InterleaveDepth: 1,
		DataBlockSize:   blockSize,
	}

	for blockID, block := range chunkPeptides(mapping.Peptides, blockSize) {
		for idx, pep := range block {
			enc.Peptides = append(enc.Peptides, pep)
			enc.Metadata = append(enc.Metadata, PeptideMeta{BlockID: blockID, IndexInBlock: idx})
		}
		var parity []string
		var dataPadding, parityPadding []SymbolPadding
		if paritySymbols > 0 {
			var err error
			parity, dataPadding, parityPadding, err = encodeBlock(block, paritySymbols, targetLen)
			if err != nil {
				return nil, err
			}
		} else {
			dataPadding = make([]SymbolPadding, len(block))
			for i, pep := range block {
				_, dataPadding[i] = peptideToSymbolBytes(pep, targetLen, nil)
			}
		}
		enc.Padding = append(enc.Padding, dataPadding...)
		for p, pep := range parity {
			enc.Peptides = append(enc.Peptides, pep)
			enc.Metadata = append(enc.Metadata, PeptideMeta{
				BlockID:      blockID,
				IndexInBlock: len(block) + p,
				IsParity:     true,
			})
		}
		enc.Padding = append(enc.Padding, parityPadding...)
	}
	return enc, nil
}

// DecodePeptides decodes RS-protected peptides encoded with EncodePeptides,
// returning the corrected data peptides with parity stripped. Received
// peptides are matched to block slots positionally; when indexing is
// enabled, parsed index prefixes place data peptides into their logical
// slots first and positional order fills the rest.
func DecodePeptides(received []string, enc *Encoded) *peptide.Mapping {
	blockSize := enc.DataBlockSize
	if blockSize <= 0 {
		blockSize = DefaultDataBlockSize
	}
	targetLen := enc.PeptideLength
	totalData := len(enc.DataLengths)

	useIndex := enc.IndexAALength > 0 && totalData > 0
	var indexPos []int
	if useIndex && enc.InterleaveDepth > 1 {
		indexPos = InterleavedIndex(totalData, enc.InterleaveDepth)
	}

	// Logical slot of a parsed index prefix, mapped through the interleave
	// permutation when one was applied.
	parseSlot := func(pep string) (int, bool) {
		parsed, ok := peptide.ParseIndex(pep, enc.IndexAALength)
		if !ok || parsed >= totalData {
			return 0, false
		}
		if indexPos != nil {
			return indexPos[parsed], true
		}
		return parsed, true
	}

	dataBySlot := make(map[int]string)
	usedPositions := make(map[int]bool)
	if useIndex {
		for pos, pep := range received {
			slot, ok := parseSlot(pep)
			if !ok {
				continue
			}
			if _, dup := dataBySlot[slot]; dup {
				continue
			}
			dataBySlot[slot] = pep
			usedPositions[pos] = true
		}
	}

	// Positional fallback: pair received peptides with encode-order
	// metadata.
	type metaPair struct {
		pos  int
		pep  string
		meta PeptideMeta
	}
	var pairs []metaPair
	for pos, pep := range received {
		if pos >= len(enc.Metadata) {
			break
		}
		pairs = append(pairs, metaPair{pos: pos, pep: pep, meta: enc.Metadata[pos]})
	}

	lengthBlocks := chunkPeptides(enc.DataLengths, blockSize)
	var recovered []string

	for blockID, dataLengths := range lengthBlocks {
		dataCount := len(dataLengths)
		expected := dataCount + enc.ParitySymbols

		entries := make([]string, expected)
		padding := make([]*SymbolPadding, expected)
		for metaIdx := range enc.Metadata {
			meta := enc.Metadata[metaIdx]
			if meta.BlockID != blockID || meta.IndexInBlock >= expected {
				continue
			}
			if metaIdx < len(enc.Padding) {
				padding[meta.IndexInBlock] = &enc.Padding[metaIdx]
			}
		}

		if useIndex {
			for idx := 0; idx < dataCount; idx++ {
				if pep, ok := dataBySlot[blockID*blockSize+idx]; ok {
					entries[idx] = pep
				}
			}
		}
		for _, pair := range pairs {
			if useIndex && usedPositions[pair.pos] {
				continue
			}
			if pair.meta.BlockID != blockID || pair.meta.IndexInBlock >= expected {
				continue
			}
			if entries[pair.meta.IndexInBlock] == "" {
				entries[pair.meta.IndexInBlock] = pair.pep
			}
		}

		// Index-prefix erasure detection only works when slots carry their
		// logical index, which interleaving breaks.
		erasureIndexLen := 0
		if useIndex && enc.InterleaveDepth <= 1 {
			erasureIndexLen = enc.IndexAALength
		}
		block := decodeBlock(entries, enc.ParitySymbols, targetLen, dataLengths, padding, erasureIndexLen, blockID*blockSize)
		recovered = append(recovered, block...)
	}

	return &peptide.Mapping{
		Peptides:      recovered,
		PadBits:       enc.PadBits,
		PeptideLength: enc.PeptideLength,
		IndexAALength: enc.IndexAALength,
	}
}
