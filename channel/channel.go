// Package channel simulates sequencing and synthesis imperfections on
// peptide sequences.
//
// Four operators run in order on each peptide: deletion, substitution,
// insertion and local shuffle. Probabilities are either fixed per run
// (basic mode) or derived per peptide from an external quality score
// (scored mode). Every operator takes an explicitly seeded RNG; the package
// never touches global RNG state.
package channel

import (
	"math/rand"
	"strings"
)

// DefaultAlphabet is the residue alphabet the operators draw from.
const DefaultAlphabet = "AVLSTFYE"

// Loss modes.
const (
	// LossModeAA drops individual residues.
	LossModeAA = "aa"
	// LossModePeptide drops whole peptides, modelling an erasure channel.
	LossModePeptide = "peptide"
)

// Options configures the basic error model.
type Options struct {
	// Per-residue (or per-peptide, in LossModePeptide) drop probability.
	LossProb float64
	// Per-residue substitution probability.
	MutationProb float64
	// Per-residue insertion probability.
	InsertionProb float64
	// Per-adjacent-pair swap probability.
	ShuffleProb float64
	// Number of shuffle passes over each peptide.
	ShufflePasses int
	// Residue alphabet for substitutions and insertions.
	Alphabet string
	// Whether peptides that end up empty are removed from the stream. When
	// false an empty string is kept to preserve positional alignment.
	DropEmpty bool
	// LossModeAA or LossModePeptide.
	LossMode string
}

// Apply runs the configured operators over peptides with rng and returns
// the corrupted sequence. With all probabilities zero the input is returned
// unchanged, element for element.
func Apply(peptides []string, opt Options, rng *rand.Rand) []string {
	alphabet := opt.Alphabet
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}

	out := append([]string(nil), peptides...)
	if opt.LossProb > 0 {
		if opt.LossMode == LossModePeptide {
			out = DropPeptides(out, opt.LossProb, rng, opt.DropEmpty)
		} else {
			out = DropAminoAcids(out, opt.LossProb, rng, opt.DropEmpty)
		}
	}
	if len(out) == 0 {
		return out
	}
	if opt.MutationProb > 0 {
		out = Mutate(out, opt.MutationProb, alphabet, rng)
	}
	if opt.InsertionProb > 0 {
		out = Insert(out, opt.InsertionProb, alphabet, rng)
	}
	if opt.ShuffleProb > 0 {
		out = Shuffle(out, opt.ShuffleProb, rng, opt.ShufflePasses)
	}
	return out
}

// DropPeptides drops whole peptides with probability lossProb. When
// dropEmpty is false a dropped peptide is kept as an empty string so the
// caller can preserve positional alignment.
func DropPeptides(peptides []string, lossProb float64, rng *rand.Rand, dropEmpty bool) []string {
	if lossProb <= 0 {
		return append([]string(nil), peptides...)
	}
	out := make([]string, 0, len(peptides))
	for _, p := range peptides {
		if rng.Float64() < lossProb {
			if !dropEmpty {
				out = append(out, "")
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

// DropAminoAcids drops residues independently at each position with
// probability lossProb. Peptides that lose every residue are removed when
// dropEmpty is set, kept as empty strings otherwise.
func DropAminoAcids(peptides []string, lossProb float64, rng *rand.Rand, dropEmpty bool) []string {
	if lossProb <= 0 {
		return append([]string(nil), peptides...)
	}
	out := make([]string, 0, len(peptides))
	for _, p := range peptides {
		var sb strings.Builder
		for i := 0; i < len(p); i++ {
			if rng.Float64() >= lossProb {
				sb.WriteByte(p[i])
			}
		}
		kept := sb.String()
		if kept != "" || !dropEmpty {
			out = append(out, kept)
		}
	}
	return out
}

// Mutate substitutes residues with probability mutationProb, always picking
// a different residue from the alphabet.
func Mutate(peptides []string, mutationProb float64, alphabet string, rng *rand.Rand) []string {
	out := make([]string, len(peptides))
	for n, p := range peptides {
		chars := []byte(p)
		for i, aa := range chars {
			if rng.Float64() < mutationProb {
				choices := make([]byte, 0, len(alphabet))
				for j := 0; j < len(alphabet); j++ {
					if alphabet[j] != aa {
						choices = append(choices, alphabet[j])
					}
				}
				if len(choices) > 0 {
					chars[i] = choices[rng.Intn(len(choices))]
				}
			}
		}
		out[n] = string(chars)
	}
	return out
}

// Insert inserts a uniformly chosen residue before or after each position
// with probability insertionProb. Empty peptides pass through untouched.
func Insert(peptides []string, insertionProb float64, alphabet string, rng *rand.Rand) []string {
	if insertionProb <= 0 || alphabet == "" {
		return append([]string(nil), peptides...)
	}
	out := make([]string, len(peptides))
	for n, p := range peptides {
		if p == "" {
			out[n] = p
			continue
		}
		var sb strings.Builder
		for i := 0; i < len(p); i++ {
			aa := p[i]
			if rng.Float64() < insertionProb {
				ins := alphabet[rng.Intn(len(alphabet))]
				if rng.Float64() < 0.5 {
					sb.WriteByte(ins)
					sb.WriteByte(aa)
				} else {
					sb.WriteByte(aa)
					sb.WriteByte(ins)
				}
			} else {
				sb.WriteByte(aa)
			}
		}
		out[n] = sb.String()
	}
	return out
}

// Shuffle performs passes sequential scans over each peptide, swapping
// neighbors i and i+1 with probability shuffleProb. Swaps compound, so a
// residue may travel several positions per pass.
func Shuffle(peptides []string, shuffleProb float64, rng *rand.Rand, passes int) []string {
	out := make([]string, len(peptides))
	for n, p := range peptides {
		if len(p) <= 1 || shuffleProb <= 0 || passes <= 0 {
			out[n] = p
			continue
		}
		chars := []byte(p)
		for pass := 0; pass < passes; pass++ {
			for i := 0; i < len(chars)-1; i++ {
				if rng.Float64() < shuffleProb {
					chars[i], chars[i+1] = chars[i+1], chars[i]
				}
			}
		}
		out[n] = string(chars)
	}
	return out
}
