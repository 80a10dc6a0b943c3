package channel

import (
	"math/rand"

	"github.com/pkg/errors"
)

// A ScoreProvider supplies a quality score Q in [0, 1] for each peptide.
// Implementations must preserve input order and be deterministic within a
// run; batching and transport are provider-side concerns.
type ScoreProvider interface {
	GetScores(peptides []string) ([]float64, error)
}

// ConstantScore scores every peptide with the same quality.
type ConstantScore float64

// GetScores implements ScoreProvider.
func (q ConstantScore) GetScores(peptides []string) ([]float64, error) {
	scores := make([]float64, len(peptides))
	for i := range scores {
		scores[i] = float64(q)
	}
	return scores, nil
}

// StaticScores scores peptides from a fixed sequence-to-quality table.
// Unknown peptides are an error, keeping test fixtures honest.
type StaticScores map[string]float64

// GetScores implements ScoreProvider.
func (m StaticScores) GetScores(peptides []string) ([]float64, error) {
	scores := make([]float64, len(peptides))
	for i, pep := range peptides {
		q, ok := m[pep]
		if !ok {
			return nil, errors.Errorf("channel: no score for peptide %q", pep)
		}
		scores[i] = q
	}
	return scores, nil
}

// ScoredOptions configures the scored error model. Probabilities are
// derived per peptide: the base error probability is p(Q) = (1-Q)*0.02,
// loss uses p(Q) and the other operators use p(Q)/2.
type ScoredOptions struct {
	ShufflePasses int
	Alphabet      string
	DropEmpty     bool
	LossMode      string
}

// ScoredStats summarizes the probabilities a scored run actually applied.
type ScoredStats struct {
	AvgLossProb      float64
	AvgMutationProb  float64
	AvgInsertionProb float64
	AvgShuffleProb   float64
}

// baseProb derives the per-peptide error probability from its score.
func baseProb(q float64) float64 {
	return (1 - q) * 0.02
}

// ApplyScored corrupts peptides with per-peptide probabilities derived from
// provider scores. Empty input peptides carry no score; they are kept or
// dropped according to DropEmpty.
func ApplyScored(peptides []string, provider ScoreProvider, opt ScoredOptions, rng *rand.Rand) ([]string, *ScoredStats, error) {
	alphabet := opt.Alphabet
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}

	scored := make([]string, 0, len(peptides))
	for _, p := range peptides {
		if p != "" {
			scored = append(scored, p)
		}
	}
	var scores []float64
	if len(scored) > 0 {
		var err error
		scores, err = provider.GetScores(scored)
		if err != nil {
			return nil, nil, errors.Wrap(err, "channel: score provider failed")
		}
		if len(scores) != len(scored) {
			return nil, nil, errors.Errorf("channel: provider returned %d scores for %d peptides", len(scores), len(scored))
		}
	}

	stats := &ScoredStats{}
	if len(scores) > 0 {
		var sum float64
		for _, q := range scores {
			sum += baseProb(q)
		}
		avg := sum / float64(len(scores))
		stats.AvgLossProb = avg
		stats.AvgMutationProb = avg / 2
		stats.AvgInsertionProb = avg / 2
		stats.AvgShuffleProb = avg / 2
	}

	var out []string
	scoreIdx := 0
	for _, pep := range peptides {
		if pep == "" {
			if !opt.DropEmpty {
				out = append(out, pep)
			}
			continue
		}
		q := scores[scoreIdx]
		scoreIdx++
		p := baseProb(q)
		other := p / 2

		current := []string{pep}
		if p > 0 {
			if opt.LossMode == LossModePeptide {
				current = DropPeptides(current, p, rng, opt.DropEmpty)
			} else {
				current = DropAminoAcids(current, p, rng, opt.DropEmpty)
			}
		}
		if len(current) == 0 {
			continue
		}
		if other > 0 {
			current = Mutate(current, other, alphabet, rng)
			current = Insert(current, other, alphabet, rng)
			current = Shuffle(current, other, rng, opt.ShufflePasses)
		}
		out = append(out, current...)
	}
	return out, stats, nil
}
