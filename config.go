package pepcode

import (
	"github.com/mewkiz/pepcode/channel"
	"github.com/pkg/errors"
)

// Encoder names accepted by Config.Encoder.
const (
	EncoderHuffman  = "huffman"
	EncoderYinYang  = "yin_yang"
	EncoderFountain = "fountain"
)

// Error model names accepted by Config.ErrorModel.
const (
	ErrorModelBasic  = "basic"
	ErrorModelScored = "scored"
)

// A Config enumerates every knob of one pipeline invocation.
type Config struct {
	// Residues per peptide.
	PeptideLength int
	// Residues reserved for the peptide index prefix; 0 disables indexing.
	IndexAALength int
	// Source codec: huffman, yin_yang or fountain.
	Encoder string
	// ECC profile name. RS profiles (none, rs4, ..., rs8_int4) protect
	// huffman and yin_yang runs; fountain profiles (fnt05 ... fnt200)
	// select the fountain overhead instead.
	ECCProfile string

	// Error model: basic (fixed probabilities) or scored (per-peptide
	// probabilities derived from Scores).
	ErrorModel string
	// Basic-model operator probabilities.
	LossProb      float64
	MutationProb  float64
	InsertionProb float64
	ShuffleProb   float64
	ShufflePasses int
	// Seed of the channel RNG stream.
	ChannelSeed int64
	// Score provider for the scored model.
	Scores channel.ScoreProvider

	// Fountain-codec settings, used when Encoder is fountain. Droplets are
	// sized from the peptide geometry; large symbol sizes are clamped so a
	// droplet never spans more peptides than necessary.
	FountainSymbolSize  int
	FountainOverhead    float64
	FountainSeedBytes   int
	FountainDegreeBytes int
	FountainCRCBytes    int
	FountainC           float64
	FountainDelta       float64
	FountainSeed        int64
	FountainMaxBytes    int
}

// DefaultConfig returns the baseline configuration: 18-mers, no indexing,
// Huffman source coding, no ECC, noiseless channel.
func DefaultConfig() Config {
	return Config{
		PeptideLength:       18,
		Encoder:             EncoderHuffman,
		ECCProfile:          "none",
		ErrorModel:          ErrorModelBasic,
		ShufflePasses:       1,
		FountainSymbolSize:  17,
		FountainOverhead:    0.1,
		FountainSeedBytes:   4,
		FountainDegreeBytes: 2,
		FountainCRCBytes:    4,
		FountainC:           0.1,
		FountainDelta:       0.5,
		FountainMaxBytes:    1 << 20,
	}
}

// validate rejects configurations the pipeline cannot run.
func (cfg *Config) validate() error {
	if cfg.PeptideLength <= 0 {
		return errors.Errorf("pepcode: peptide length must be positive, got %d", cfg.PeptideLength)
	}
	if cfg.IndexAALength < 0 || cfg.IndexAALength >= cfg.PeptideLength {
		return errors.Errorf("pepcode: index length %d out of range for peptide length %d", cfg.IndexAALength, cfg.PeptideLength)
	}
	switch cfg.Encoder {
	case EncoderHuffman, EncoderYinYang, EncoderFountain:
	default:
		return errors.Errorf("pepcode: unsupported encoder %q", cfg.Encoder)
	}
	switch cfg.ErrorModel {
	case ErrorModelBasic:
	case ErrorModelScored:
		if cfg.Scores == nil {
			return errors.New("pepcode: scored error model requires a score provider")
		}
	default:
		return errors.Errorf("pepcode: unsupported error model %q", cfg.ErrorModel)
	}
	return nil
}
