package pepcode

import (
	"github.com/mewkiz/pepcode/ecc"
	"github.com/mewkiz/pkg/errutil"
)

// A Scenario is one operating point of the error channel.
type Scenario struct {
	LossProb      float64 `json:"loss_prob" yaml:"loss_prob"`
	MutationProb  float64 `json:"mutation_prob" yaml:"mutation_prob"`
	InsertionProb float64 `json:"insertion_prob" yaml:"insertion_prob"`
	ShuffleProb   float64 `json:"shuffle_prob" yaml:"shuffle_prob"`
}

// Scenario construction modes.
const (
	// SweepModeAll applies each probability value to all four operators.
	SweepModeAll = "all"
	// SweepModeLoss varies only the loss probability.
	SweepModeLoss = "loss"
)

// BuildScenarios expands probability values into channel scenarios.
func BuildScenarios(values []float64, mode string) []Scenario {
	scenarios := make([]Scenario, 0, len(values))
	for _, v := range values {
		if mode == SweepModeLoss {
			scenarios = append(scenarios, Scenario{LossProb: v})
			continue
		}
		scenarios = append(scenarios, Scenario{
			LossProb:      v,
			MutationProb:  v,
			InsertionProb: v,
			ShuffleProb:   v,
		})
	}
	return scenarios
}

// Sweep runs every scenario against every profile over one payload,
// sequentially and in insertion order, and returns all results. Runs whose
// pipeline fails are recorded as failure-tagged results and the sweep
// continues; only an unrunnable base configuration or an unknown profile
// aborts. Profile names are validated up front against the family the
// configured encoder uses.
func Sweep(data []byte, base Config, scenarios []Scenario, profiles []string) ([]*Result, error) {
	for _, profile := range profiles {
		if base.Encoder == EncoderFountain {
			if !ecc.IsFountainProfile(profile) {
				return nil, errutil.Newf("pepcode: unknown fountain profile %q", profile)
			}
			continue
		}
		if _, _, err := ecc.Profile(profile); err != nil {
			return nil, errutil.Err(err)
		}
	}

	var results []*Result
	for _, scenario := range scenarios {
		for _, profile := range profiles {
			cfg := base
			cfg.ECCProfile = profile
			cfg.LossProb = scenario.LossProb
			cfg.MutationProb = scenario.MutationProb
			cfg.InsertionProb = scenario.InsertionProb
			cfg.ShuffleProb = scenario.ShuffleProb
			res, err := Run(data, cfg)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
	}
	return results, nil
}
