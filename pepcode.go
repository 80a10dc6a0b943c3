// Package pepcode implements a peptide-based data-storage pipeline: source
// codecs that turn arbitrary byte payloads into ordered sequences of short
// amino-acid peptides, an outer Reed-Solomon code over peptide symbols, an
// error-injection channel, and the decoders that recover the original
// bytes.
//
// The encode path is payload -> source encode -> bits -> peptides ->
// RS parity -> transmitted peptides; the decode path inverts it. The
// channel operates on the transmitted peptides in between. Fountain runs
// replace the RS outer code with droplet-level redundancy and treat the
// channel as an erasure channel.
package pepcode

import (
	"math/rand"

	"github.com/mewkiz/pepcode/channel"
	"github.com/mewkiz/pepcode/ecc"
	"github.com/mewkiz/pepcode/fountain"
	"github.com/mewkiz/pepcode/huffman"
	"github.com/mewkiz/pepcode/peptide"
	"github.com/mewkiz/pepcode/yinyang"
	"github.com/mewkiz/pkg/errutil"
	"github.com/pkg/errors"
)

// ErrOuterDecode tags failures of the outer decoding layer: the RS/ECC
// profile decoder, the positional peptide reconstruction, or the fountain
// peeling decoder running out of coverage. Source-codec rejections keep
// their own error kinds, so the driver can tell the two pipeline stages
// apart when classifying a failed run.
var ErrOuterDecode = errors.New("pepcode: outer decoder failure")

// An Encoded holds one payload's transmitted peptides together with the
// side information each stage needs to invert itself. The structure is
// immutable after Encode returns.
type Encoded struct {
	// Transmitted peptides, in channel order.
	Peptides []string
	// Source codec that produced the stream.
	Encoder string
	// ECC profile the stream was encoded with.
	Profile string

	// Source-codec side information; exactly one of Huffman, YinYang and
	// Fountain is set, matching Encoder.
	Huffman  *huffman.Encoded
	YinYang  *yinyang.Encoded
	Fountain *fountain.Encoded

	// Data-peptide mapping before the outer code.
	Mapping *peptide.Mapping
	// RS outer-code packet; nil for fountain runs.
	RS *ecc.Encoded
}

// Encode runs the configured source codec and outer code over data and
// returns the transmitted peptides with their decode metadata.
func Encode(data []byte, cfg Config) (*Encoded, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	switch cfg.Encoder {
	case EncoderHuffman:
		src := huffman.Encode(data)
		mapping, err := peptide.FromBits(src.Bits, cfg.PeptideLength, cfg.IndexAALength, false)
		if err != nil {
			return nil, errutil.Err(err)
		}
		packet, err := ecc.EncodeProfile(mapping, cfg.ECCProfile)
		if err != nil {
			return nil, errutil.Err(err)
		}
		return &Encoded{
			Peptides: packet.Peptides,
			Encoder:  cfg.Encoder,
			Profile:  cfg.ECCProfile,
			Huffman:  src,
			Mapping:  mapping,
			RS:       packet,
		}, nil

	case EncoderYinYang:
		src, err := yinyang.Encode(data, cfg.PeptideLength, cfg.IndexAALength)
		if err != nil {
			return nil, errutil.Err(err)
		}
		mapping := &peptide.Mapping{
			Peptides:      src.Peptides,
			PadBits:       src.PadBits,
			PeptideLength: cfg.PeptideLength,
			IndexAALength: cfg.IndexAALength,
		}
		packet, err := ecc.EncodeProfile(mapping, cfg.ECCProfile)
		if err != nil {
			return nil, errutil.Err(err)
		}
		return &Encoded{
			Peptides: packet.Peptides,
			Encoder:  cfg.Encoder,
			Profile:  cfg.ECCProfile,
			YinYang:  src,
			Mapping:  mapping,
			RS:       packet,
		}, nil

	case EncoderFountain:
		params := fountain.Params{
			PeptideLength: cfg.PeptideLength,
			IndexAALength: cfg.IndexAALength,
			SymbolSize:    cfg.FountainSymbolSize,
			Overhead:      ecc.FountainOverhead(cfg.ECCProfile, cfg.FountainOverhead),
			SeedBytes:     cfg.FountainSeedBytes,
			DegreeBytes:   cfg.FountainDegreeBytes,
			CRCBytes:      cfg.FountainCRCBytes,
			C:             cfg.FountainC,
			Delta:         cfg.FountainDelta,
			Seed:          cfg.FountainSeed,
			MaxBytes:      cfg.FountainMaxBytes,
		}
		src, err := fountain.Encode(data, params)
		if err != nil {
			return nil, errutil.Err(err)
		}
		// Full-peptide padding keeps droplet boundaries aligned with whole
		// peptides.
		mapping, err := peptide.FromBits(src.Bits, cfg.PeptideLength, cfg.IndexAALength, true)
		if err != nil {
			return nil, errutil.Err(err)
		}
		return &Encoded{
			Peptides: mapping.Peptides,
			Encoder:  cfg.Encoder,
			Profile:  cfg.ECCProfile,
			Fountain: src,
			Mapping:  mapping,
		}, nil
	}
	return nil, errutil.Newf("pepcode: unsupported encoder %q", cfg.Encoder)
}

// Decode recovers the payload bytes from received peptides using the
// metadata of enc. Failures of the outer layer (ECC decode, positional
// reconstruction, fountain peeling) are wrapped in ErrOuterDecode;
// source-codec rejections surface with their own error kinds. The driver
// maps either to a failed outcome.
func Decode(received []string, enc *Encoded, cfg Config) ([]byte, error) {
	switch enc.Encoder {
	case EncoderHuffman:
		recovered, err := ecc.DecodeProfile(received, enc.RS, enc.Profile)
		if err != nil {
			return nil, errors.Wrapf(ErrOuterDecode, "%v", err)
		}
		bitstr, err := recovered.ToBits()
		if err != nil {
			return nil, err
		}
		return huffman.Decode(&huffman.Encoded{Bits: bitstr, Codec: enc.Huffman.Codec})

	case EncoderYinYang:
		recovered, err := ecc.DecodeProfile(received, enc.RS, enc.Profile)
		if err != nil {
			return nil, errors.Wrapf(ErrOuterDecode, "%v", err)
		}
		return yinyang.Decode(&yinyang.Encoded{
			Peptides:      recovered.Peptides,
			PadBits:       recovered.PadBits,
			PeptideLength: recovered.PeptideLength,
			IndexAALength: recovered.IndexAALength,
			OriginalSize:  enc.YinYang.OriginalSize,
			SchemeID:      enc.YinYang.SchemeID,
		})

	case EncoderFountain:
		bitstr, err := peptide.ToBitsFixed(received, enc.Mapping.PeptideLength, enc.Mapping.IndexAALength, len(enc.Mapping.Peptides), enc.Mapping.PadBits)
		if err != nil {
			return nil, errors.Wrapf(ErrOuterDecode, "%v", err)
		}
		stream := *enc.Fountain
		stream.Bits = bitstr
		decoded := fountain.Decode(&stream)
		if len(decoded) == 0 && stream.OriginalSize > 0 {
			return nil, errors.Wrap(ErrOuterDecode, "fountain peeling left source symbols unrecovered")
		}
		return decoded, nil
	}
	return nil, errutil.Newf("pepcode: unsupported encoder %q", enc.Encoder)
}

// applyChannel corrupts the transmitted peptides per the configured error
// model. Fountain runs use whole-peptide dropout so a lost peptide wipes
// its droplet segment cleanly; positional alignment is kept through empty
// placeholders unless indexing identifies peptides by content.
func applyChannel(peptides []string, cfg Config) ([]string, *channel.ScoredStats, error) {
	rng := rand.New(rand.NewSource(cfg.ChannelSeed))

	lossMode := channel.LossModeAA
	dropEmpty := true
	if cfg.Encoder == EncoderFountain {
		lossMode = channel.LossModePeptide
		dropEmpty = cfg.IndexAALength > 0
	}

	if cfg.ErrorModel == ErrorModelScored {
		return channel.ApplyScored(peptides, cfg.Scores, channel.ScoredOptions{
			ShufflePasses: cfg.ShufflePasses,
			DropEmpty:     dropEmpty,
			LossMode:      lossMode,
		}, rng)
	}
	corrupted := channel.Apply(peptides, channel.Options{
		LossProb:      cfg.LossProb,
		MutationProb:  cfg.MutationProb,
		InsertionProb: cfg.InsertionProb,
		ShuffleProb:   cfg.ShuffleProb,
		ShufflePasses: cfg.ShufflePasses,
		DropEmpty:     dropEmpty,
		LossMode:      lossMode,
	}, rng)
	return corrupted, nil, nil
}

// EncodeAndDecode composes encode, channel and decode for one payload and
// returns the original peptides, the corrupted peptides and the decoded
// bytes. Decoder rejections yield empty decoded bytes, not an error.
func EncodeAndDecode(data []byte, cfg Config) (original, corrupted []string, decoded []byte, err error) {
	enc, err := Encode(data, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	corrupted, _, err = applyChannel(enc.Peptides, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	decoded, derr := Decode(corrupted, enc, cfg)
	if derr != nil {
		decoded = nil
	}
	return enc.Peptides, corrupted, decoded, nil
}
