package pepcode_test

import (
	"math/rand"
	"testing"

	"github.com/mewkiz/pepcode"
)

func TestBuildScenarios(t *testing.T) {
	all := pepcode.BuildScenarios([]float64{0, 0.01}, pepcode.SweepModeAll)
	if len(all) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(all))
	}
	if all[1].LossProb != 0.01 || all[1].MutationProb != 0.01 || all[1].ShuffleProb != 0.01 {
		t.Errorf("all mode must set every operator: %+v", all[1])
	}

	loss := pepcode.BuildScenarios([]float64{0.05}, pepcode.SweepModeLoss)
	if loss[0].LossProb != 0.05 || loss[0].MutationProb != 0 {
		t.Errorf("loss mode must vary only loss: %+v", loss[0])
	}
}

func TestSweep(t *testing.T) {
	data := []byte("sweep fixture payload")
	base := pepcode.DefaultConfig()
	scenarios := pepcode.BuildScenarios([]float64{0}, pepcode.SweepModeAll)
	profiles := []string{"none", "rs4"}

	results, err := pepcode.Sweep(data, base, scenarios, profiles)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(scenarios)*len(profiles) {
		t.Fatalf("expected %d results, got %d", len(scenarios)*len(profiles), len(results))
	}
	for _, res := range results {
		if !res.Success {
			t.Errorf("profile %s: expected noiseless success, got %s", res.Profile, res.FailureMode)
		}
		if res.RunID == "" {
			t.Error("missing run id")
		}
		if res.TxUnits != res.DataUnits+res.ParityUnits {
			t.Errorf("profile %s: tx units %d != data %d + parity %d", res.Profile, res.TxUnits, res.DataUnits, res.ParityUnits)
		}
	}
	if results[0].ParityUnits != 0 {
		t.Errorf("profile none: expected no parity, got %d", results[0].ParityUnits)
	}
	if results[1].ParityUnits == 0 {
		t.Error("profile rs4: expected parity peptides")
	}
}

func TestSweepRecordsFailures(t *testing.T) {
	// A geometry whose index prefix cannot number the peptides fails every
	// run; the sweep must record each failure-tagged result and keep
	// going instead of aborting on the first one.
	rng := rand.New(rand.NewSource(139))
	data := make([]byte, 100)
	rng.Read(data)

	base := pepcode.DefaultConfig()
	base.PeptideLength = 6
	base.IndexAALength = 1
	scenarios := pepcode.BuildScenarios([]float64{0, 0.01}, pepcode.SweepModeAll)
	profiles := []string{"none", "rs4"}

	results, err := pepcode.Sweep(data, base, scenarios, profiles)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(scenarios)*len(profiles) {
		t.Fatalf("expected %d results, got %d", len(scenarios)*len(profiles), len(results))
	}
	for _, res := range results {
		if res.Success {
			t.Errorf("profile %s: expected failure", res.Profile)
		}
		if res.FailureMode != pepcode.FailureOuterDecoder {
			t.Errorf("profile %s: expected outer_decoder_failure, got %s", res.Profile, res.FailureMode)
		}
	}
}

func TestSweepValidatesProfiles(t *testing.T) {
	base := pepcode.DefaultConfig()
	if _, err := pepcode.Sweep([]byte("x"), base, nil, []string{"fnt20"}); err == nil {
		t.Error("expected error: fountain profile with RS encoder")
	}

	base.Encoder = pepcode.EncoderFountain
	if _, err := pepcode.Sweep([]byte("x"), base, nil, []string{"rs4"}); err == nil {
		t.Error("expected error: RS profile with fountain encoder")
	}
}

func TestSweepFountainProfiles(t *testing.T) {
	data := []byte("fountain sweep fixture data")
	base := pepcode.DefaultConfig()
	base.Encoder = pepcode.EncoderFountain
	base.FountainSeed = 1

	results, err := pepcode.Sweep(data, base, pepcode.BuildScenarios([]float64{0}, pepcode.SweepModeLoss), []string{"fnt05", "fnt20"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if !res.Success {
			t.Errorf("profile %s: expected noiseless success, got %s", res.Profile, res.FailureMode)
		}
	}
	// Higher overhead transmits more droplets.
	if results[1].TxUnits <= results[0].TxUnits {
		t.Errorf("fnt20 should transmit more droplets than fnt05: %d <= %d", results[1].TxUnits, results[0].TxUnits)
	}
}
