package pepcode_test

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/mewkiz/pepcode"
	"github.com/mewkiz/pepcode/channel"
	"github.com/mewkiz/pepcode/huffman"
	"github.com/mewkiz/pepcode/peptide"
	"github.com/pkg/errors"
)

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHuffmanNoiselessRoundTrip(t *testing.T) {
	data := []byte("hello peptide!")
	cfg := pepcode.DefaultConfig()

	original, corrupted, decoded, err := pepcode.EncodeAndDecode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(original, corrupted) {
		t.Error("noiseless channel altered the peptides")
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded bytes mismatch; expected %q, got %q", data, decoded)
	}

	res, err := pepcode.Run(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.BitErrorRate != 0 || res.FailureMode != pepcode.FailureNone {
		t.Errorf("expected clean success, got %+v", res)
	}
}

func TestYinYangNoiselessRoundTrip(t *testing.T) {
	data := []byte("hello peptide!")
	cfg := pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderYinYang

	original, corrupted, decoded, err := pepcode.EncodeAndDecode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(original, corrupted) {
		t.Error("noiseless channel altered the peptides")
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded bytes mismatch; expected %q, got %q", data, decoded)
	}

	// Emitted peptides hold the composition caps for an 18-mer payload:
	// at most 3 aromatics (F, Y) and at most 6 glutamates.
	for _, pep := range original {
		aro := strings.Count(pep, "F") + strings.Count(pep, "Y")
		e := strings.Count(pep, "E")
		if aro > 3 {
			t.Errorf("peptide %q: %d aromatics exceed the cap", pep, aro)
		}
		if e > 6 {
			t.Errorf("peptide %q: %d glutamates exceed the cap", pep, e)
		}
	}
}

func TestFountainNoiselessRoundTrip(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 256)
	}
	cfg := pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderFountain
	cfg.ECCProfile = "fnt20"
	cfg.FountainSymbolSize = 64
	cfg.FountainSeed = 2024

	enc, err := pepcode.Encode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// L=18, I=0: droplet capacity is 17 bytes, so the requested symbol
	// size clamps and k = ceil(4096/17).
	wantK := (4096 + 16) / 17
	if enc.Fountain.K != wantK {
		t.Errorf("expected k=%d, got %d", wantK, enc.Fountain.K)
	}
	if want := wantK * 3; enc.Fountain.DropletCount != want {
		t.Errorf("expected droplet count %d, got %d", want, enc.Fountain.DropletCount)
	}

	decoded, err := pepcode.Decode(enc.Peptides, enc, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("decoded bytes mismatch")
	}
}

func TestRSCorrectsFlippedPeptide(t *testing.T) {
	data := []byte("peptide-rs-symbol")
	cfg := pepcode.DefaultConfig()
	cfg.PeptideLength = 6
	cfg.ECCProfile = "rs4"

	enc, err := pepcode.Encode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	received := append([]string(nil), enc.Peptides...)
	pep := []byte(received[0])
	idx := strings.IndexByte(peptide.Alphabet, pep[0])
	pep[0] = peptide.Alphabet[(idx+1)%8]
	received[0] = string(pep)

	decoded, err := pepcode.Decode(received, enc, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded bytes mismatch; expected %q, got %q", data, decoded)
	}
}

func TestRSMisalignedPadding(t *testing.T) {
	// L=5 gives 15-bit symbols, not byte aligned; padding metadata must
	// carry the parity bits through the round trip.
	data := []byte("pad-bit-coverage")
	cfg := pepcode.DefaultConfig()
	cfg.PeptideLength = 5
	cfg.ECCProfile = "rs4"

	enc, err := pepcode.Encode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	received := append([]string(nil), enc.Peptides...)
	pep := []byte(received[0])
	idx := strings.IndexByte(peptide.Alphabet, pep[0])
	pep[0] = peptide.Alphabet[(idx+1)%8]
	received[0] = string(pep)

	decoded, err := pepcode.Decode(received, enc, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded bytes mismatch; expected %q, got %q", data, decoded)
	}
}

func TestChannelIdempotence(t *testing.T) {
	// With all probabilities zero the corrupted stream equals the
	// original, whatever the encoder and profile.
	rng := rand.New(rand.NewSource(109))
	data := make([]byte, 1024)
	rng.Read(data)

	cases := []struct {
		encoder string
		profile string
	}{
		{encoder: pepcode.EncoderHuffman, profile: "none"},
		{encoder: pepcode.EncoderHuffman, profile: "rs8"},
		{encoder: pepcode.EncoderYinYang, profile: "rs16"},
		{encoder: pepcode.EncoderFountain, profile: "fnt05"},
	}
	for _, c := range cases {
		cfg := pepcode.DefaultConfig()
		cfg.Encoder = c.encoder
		cfg.ECCProfile = c.profile
		original, corrupted, decoded, err := pepcode.EncodeAndDecode(data, cfg)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error; %v", c.encoder, c.profile, err)
		}
		if !equal(original, corrupted) {
			t.Errorf("%s/%s: channel not idempotent at zero probabilities", c.encoder, c.profile)
		}
		if !bytes.Equal(decoded, data) {
			t.Errorf("%s/%s: decoded bytes mismatch", c.encoder, c.profile)
		}
	}
}

func TestFountainErasureChannel(t *testing.T) {
	// 20% whole-peptide dropout against an 11x overhead fountain stream;
	// the deterministic RNG fixture keeps the outcome reproducible.
	rng := rand.New(rand.NewSource(113))
	data := make([]byte, 2048)
	rng.Read(data)

	cfg := pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderFountain
	cfg.ECCProfile = "fnt100"
	cfg.LossProb = 0.2
	cfg.FountainSeed = 2024
	cfg.ChannelSeed = 7

	original, corrupted, decoded, err := pepcode.EncodeAndDecode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(corrupted) != len(original) {
		t.Errorf("peptide loss must leave empty placeholders; %d != %d", len(corrupted), len(original))
	}
	if !bytes.Equal(decoded, data) {
		t.Error("fountain decode failed under 20% peptide dropout")
	}

	res, err := pepcode.Run(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Errorf("expected success, got failure mode %s", res.FailureMode)
	}
}

func TestRSUnderResidueLoss(t *testing.T) {
	// Light residue dropout against rs64: lost residues shorten peptides,
	// which the symbol packer pads and RS corrects or flags as erasures.
	rng := rand.New(rand.NewSource(127))
	data := make([]byte, 256)
	rng.Read(data)

	cfg := pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderHuffman
	cfg.ECCProfile = "rs64"
	cfg.LossProb = 0.01
	cfg.ChannelSeed = 5

	res, err := pepcode.Run(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Errorf("expected rs64 to carry 1%% residue loss, got %s", res.FailureMode)
	}
}

func TestScoredModel(t *testing.T) {
	data := []byte("scored channel fixture")
	cfg := pepcode.DefaultConfig()
	cfg.ECCProfile = "rs8"
	cfg.ErrorModel = pepcode.ErrorModelScored
	cfg.Scores = channel.ConstantScore(1.0) // perfect quality, p(Q)=0

	original, corrupted, decoded, err := pepcode.EncodeAndDecode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(original, corrupted) {
		t.Error("perfect scores must leave peptides untouched")
	}
	if !bytes.Equal(decoded, data) {
		t.Error("decoded bytes mismatch")
	}

	res, err := pepcode.Run(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.ScoredStats == nil || res.ScoredStats.AvgLossProb != 0 {
		t.Errorf("expected zero applied probabilities, got %+v", res.ScoredStats)
	}
}

func TestDecodeDistinguishesFailureLayers(t *testing.T) {
	// Source-codec rejection: with no parity, an inserted residue shifts
	// the recovered bit count off the byte boundary and the Huffman
	// decoder rejects it. The error is a codec error, not an outer one.
	data := []byte("hello peptide!")
	cfg := pepcode.DefaultConfig()
	enc, err := pepcode.Encode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	received := append([]string(nil), enc.Peptides...)
	received[0] += "A"
	_, derr := pepcode.Decode(received, enc, cfg)
	if derr == nil {
		t.Fatal("expected decode error for shifted bitstream")
	}
	if errors.Cause(derr) != huffman.ErrMalformed {
		t.Errorf("expected huffman.ErrMalformed, got %v", derr)
	}
	if errors.Cause(derr) == pepcode.ErrOuterDecode {
		t.Error("codec rejection must not be tagged as an outer failure")
	}

	// Outer failure: a fountain stream with every droplet wiped cannot
	// recover any source symbol.
	cfg = pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderFountain
	cfg.ECCProfile = "fnt05"
	cfg.FountainSeed = 17
	enc, err = pepcode.Encode(make([]byte, 64), cfg)
	if err != nil {
		t.Fatal(err)
	}
	dead := make([]string, len(enc.Peptides))
	_, derr = pepcode.Decode(dead, enc, cfg)
	if errors.Cause(derr) != pepcode.ErrOuterDecode {
		t.Errorf("expected ErrOuterDecode for exhausted fountain stream, got %v", derr)
	}
}

func TestRunTagsOuterFailures(t *testing.T) {
	rng := rand.New(rand.NewSource(137))
	data := make([]byte, 100)
	rng.Read(data)

	// Encode failure: one index residue numbers at most 8 peptides, far
	// fewer than this payload needs. Run records the failure instead of
	// returning an error.
	cfg := pepcode.DefaultConfig()
	cfg.PeptideLength = 6
	cfg.IndexAALength = 1
	res, err := pepcode.Run(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.FailureMode != pepcode.FailureOuterDecoder {
		t.Errorf("expected outer_decoder_failure, got success=%v mode=%s", res.Success, res.FailureMode)
	}
	if res.BitErrorRate != 1 {
		t.Errorf("expected bit error rate 1 for a failed run, got %v", res.BitErrorRate)
	}

	// Total peptide loss exhausts every droplet of a fountain run; the
	// peeling failure is an outer-decoder outcome, not merely empty
	// output.
	cfg = pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderFountain
	cfg.ECCProfile = "fnt05"
	cfg.LossProb = 1.0
	cfg.FountainSeed = 17
	res, err = pepcode.Run(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.FailureMode != pepcode.FailureOuterDecoder {
		t.Errorf("expected outer_decoder_failure, got success=%v mode=%s", res.Success, res.FailureMode)
	}
	if res.DecodedSize != 0 {
		t.Errorf("expected no decoded bytes, got %d", res.DecodedSize)
	}
}

func TestConfigErrors(t *testing.T) {
	data := []byte("x")

	cfg := pepcode.DefaultConfig()
	cfg.Encoder = "arithmetic"
	if _, err := pepcode.Encode(data, cfg); err == nil {
		t.Error("expected error for unknown encoder")
	}

	cfg = pepcode.DefaultConfig()
	cfg.IndexAALength = 18
	if _, err := pepcode.Encode(data, cfg); err == nil {
		t.Error("expected error when index consumes the whole peptide")
	}

	cfg = pepcode.DefaultConfig()
	cfg.ECCProfile = "rs3"
	if _, err := pepcode.Encode(data, cfg); err == nil {
		t.Error("expected error for unknown RS profile")
	}

	cfg = pepcode.DefaultConfig()
	cfg.ErrorModel = pepcode.ErrorModelScored
	if _, err := pepcode.Encode(data, cfg); err == nil {
		t.Error("expected error for scored model without provider")
	}

	cfg = pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderFountain
	cfg.FountainMaxBytes = 4
	if _, err := pepcode.Encode([]byte("too big"), cfg); err == nil {
		t.Error("expected error for payload above the fountain limit")
	}
}

func TestIndexedFountainRun(t *testing.T) {
	// With I>0 lost peptides are dropped outright and the index prefixes
	// re-slot the survivors. Removing a redundant droplet shifts every
	// later peptide's position; only the prefixes restore alignment.
	rng := rand.New(rand.NewSource(131))
	data := make([]byte, 16)
	rng.Read(data)

	cfg := pepcode.DefaultConfig()
	cfg.Encoder = pepcode.EncoderFountain
	cfg.ECCProfile = "fnt20"
	cfg.IndexAALength = 2
	// I=2 leaves 6-byte droplets; shrink the headers to fit.
	cfg.FountainSeedBytes = 2
	cfg.FountainDegreeBytes = 1
	cfg.FountainCRCBytes = 2
	cfg.FountainSeed = 99

	enc, err := pepcode.Encode(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if enc.Fountain.K != 16 || enc.Fountain.SymbolSize != 1 {
		t.Fatalf("unexpected geometry: k=%d symbol=%d", enc.Fountain.K, enc.Fountain.SymbolSize)
	}

	// Drop one of the non-systematic droplets (one whole peptide).
	received := append([]string(nil), enc.Peptides[:20]...)
	received = append(received, enc.Peptides[21:]...)

	decoded, err := pepcode.Decode(received, enc, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("decoded bytes mismatch after dropping a redundant droplet")
	}
}
