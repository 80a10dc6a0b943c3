package pepcode

import (
	"math/bits"
	"time"

	"github.com/google/uuid"
	"github.com/mewkiz/pepcode/channel"
	"github.com/pkg/errors"
)

// Failure modes recorded on a Result.
const (
	FailureNone          = "success"
	FailureOuterDecoder  = "outer_decoder_failure"
	FailureSourceCodec   = "source_codec_failure"
	FailureEmptyOutput   = "empty_output"
	FailureMismatch      = "mismatch"
)

// A Result reports one pipeline invocation.
type Result struct {
	// Unique id of this invocation.
	RunID string `json:"run_id"`
	// Configuration echo.
	Encoder    string   `json:"encoder"`
	Profile    string   `json:"ecc_profile"`
	ErrorModel string   `json:"error_model"`
	Scenario   Scenario `json:"scenario"`

	// Payload accounting.
	OriginalSize int     `json:"original_size_bytes"`
	DecodedSize  int     `json:"decoded_size_bytes"`
	Success      bool    `json:"success"`
	ByteErrors   int     `json:"byte_errors"`
	BitErrors    int     `json:"bit_errors"`
	BitErrorRate float64 `json:"bit_error_rate"`
	FailureMode  string  `json:"failure_mode"`

	// Structural counts. Data units are source peptides for RS runs and
	// source symbols for fountain runs; tx units are transmitted peptides
	// or droplets respectively.
	DataUnits           int `json:"data_units"`
	ParityUnits         int `json:"parity_units"`
	TxUnits             int `json:"tx_units"`
	TxPeptides          int `json:"tx_peptides"`
	TxResiduesTotal     int `json:"tx_residues_total"`
	EncodedSizeBytes    int `json:"encoded_size_bytes"`
	PayloadBitsCapacity int `json:"payload_bits_capacity"`
	PayloadBitsUseful   int `json:"payload_bits_useful"`

	// Wall-clock accounting.
	EncodeTime time.Duration `json:"encode_time_ns"`
	DecodeTime time.Duration `json:"decode_time_ns"`

	// Probabilities a scored run actually applied; nil for basic runs.
	ScoredStats *channel.ScoredStats `json:"scored_stats,omitempty"`
}

// ByteErrors counts differing bytes between a and b; length mismatches
// count one error per missing or extra byte.
func ByteErrors(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	errs := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			errs++
		}
	}
	if len(a) > len(b) {
		errs += len(a) - len(b)
	} else {
		errs += len(b) - len(a)
	}
	return errs
}

// BitErrors counts differing bits between a and b; length mismatches count
// 8 bit errors per missing or extra byte.
func BitErrors(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	errs := 0
	for i := 0; i < n; i++ {
		errs += bits.OnesCount8(a[i] ^ b[i])
	}
	if len(a) > len(b) {
		errs += 8 * (len(a) - len(b))
	} else {
		errs += 8 * (len(b) - len(a))
	}
	return errs
}

// failureMode classifies a finished invocation.
func failureMode(success bool, decodedLen int, outerFailed, sourceFailed bool) string {
	switch {
	case success:
		return FailureNone
	case outerFailed:
		return FailureOuterDecoder
	case sourceFailed:
		return FailureSourceCodec
	case decodedLen == 0:
		return FailureEmptyOutput
	}
	return FailureMismatch
}

// Run executes one full encode-channel-decode invocation and reports its
// metrics. Pipeline failures of any stage are recorded on the Result, not
// returned as errors; only an unrunnable configuration errors out.
func Run(data []byte, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	res := &Result{
		RunID:      uuid.NewString(),
		Encoder:    cfg.Encoder,
		Profile:    cfg.ECCProfile,
		ErrorModel: cfg.ErrorModel,
		Scenario: Scenario{
			LossProb:      cfg.LossProb,
			MutationProb:  cfg.MutationProb,
			InsertionProb: cfg.InsertionProb,
			ShuffleProb:   cfg.ShuffleProb,
		},
		OriginalSize: len(data),
	}

	encodeStart := time.Now()
	enc, err := Encode(data, cfg)
	res.EncodeTime = time.Since(encodeStart)
	if err != nil {
		return failedRun(res, data, FailureOuterDecoder), nil
	}

	payloadResidues := cfg.PeptideLength - cfg.IndexAALength
	res.TxPeptides = len(enc.Peptides)
	res.TxResiduesTotal = res.TxPeptides * cfg.PeptideLength
	res.EncodedSizeBytes = (res.TxResiduesTotal*3 + 7) / 8
	switch cfg.Encoder {
	case EncoderFountain:
		res.DataUnits = enc.Fountain.K
		res.TxUnits = enc.Fountain.DropletCount
		res.PayloadBitsCapacity = res.TxPeptides * payloadResidues * 3
		res.PayloadBitsUseful = 8 * len(data)
	case EncoderYinYang:
		res.DataUnits = len(enc.Mapping.Peptides)
		res.ParityUnits = len(enc.Peptides) - res.DataUnits
		res.TxUnits = len(enc.Peptides)
		res.PayloadBitsCapacity = res.DataUnits * payloadResidues * 2
		res.PayloadBitsUseful = 8 * len(data)
	default:
		res.DataUnits = len(enc.Mapping.Peptides)
		res.ParityUnits = len(enc.Peptides) - res.DataUnits
		res.TxUnits = len(enc.Peptides)
		res.PayloadBitsCapacity = res.DataUnits * payloadResidues * 3
		res.PayloadBitsUseful = len(enc.Huffman.Bits)
	}

	corrupted, scoredStats, err := applyChannel(enc.Peptides, cfg)
	if err != nil {
		return failedRun(res, data, FailureOuterDecoder), nil
	}
	res.ScoredStats = scoredStats

	decodeStart := time.Now()
	decoded, derr := Decode(corrupted, enc, cfg)
	res.DecodeTime = time.Since(decodeStart)
	outerFailed := false
	sourceFailed := false
	if derr != nil {
		decoded = nil
		if errors.Cause(derr) == ErrOuterDecode {
			outerFailed = true
		} else {
			sourceFailed = true
		}
	}

	res.DecodedSize = len(decoded)
	res.Success = len(decoded) == len(data) && ByteErrors(data, decoded) == 0
	res.ByteErrors = ByteErrors(data, decoded)
	res.BitErrors = BitErrors(data, decoded)
	if len(data) > 0 {
		res.BitErrorRate = float64(res.BitErrors) / float64(8*len(data))
	}
	res.FailureMode = failureMode(res.Success, len(decoded), outerFailed, sourceFailed)
	return res, nil
}

// failedRun finalizes a result whose pipeline never produced decoded bytes.
func failedRun(res *Result, data []byte, mode string) *Result {
	res.ByteErrors = ByteErrors(data, nil)
	res.BitErrors = BitErrors(data, nil)
	if len(data) > 0 {
		res.BitErrorRate = float64(res.BitErrors) / float64(8*len(data))
	}
	res.FailureMode = mode
	return res
}
