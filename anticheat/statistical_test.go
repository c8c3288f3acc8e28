package anticheat

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

func TestStatisticalDetectorFlagsBiasedDie(t *testing.T) {
	d := NewStatisticalDetector(30, 0.001, 0)
	shooter := mkPeer(1)
	now := time.Unix(1_700_000_000, 0)

	var ev *Evidence
	// A die that only ever comes up 6 is maximally biased.
	for i := 0; i < 40; i++ {
		ev = d.Observe(shooter, protocol.DiceRoll{Die1: 6, Die2: 6}, now)
	}
	if ev == nil {
		t.Fatalf("expected statistical anomaly evidence for a fixed die")
	}
	if ev.Kind != EvidenceStatisticalAnomaly {
		t.Fatalf("expected EvidenceStatisticalAnomaly, got %v", ev.Kind)
	}
	if ev.Severity <= 0 || ev.Severity > 1 {
		t.Fatalf("severity out of (0,1]: %v", ev.Severity)
	}
}

func TestStatisticalDetectorSilentBelowMinSamples(t *testing.T) {
	d := NewStatisticalDetector(30, 0.001, 0)
	shooter := mkPeer(1)
	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 10; i++ {
		if ev := d.Observe(shooter, protocol.DiceRoll{Die1: 6, Die2: 6}, now); ev != nil {
			t.Fatalf("expected no evidence before min_samples is reached, got one at sample %d", i)
		}
	}
}

func TestChiSquareUniformRarelyFlagsFairDice(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	trials := 200
	falsePositives := 0
	for trial := 0; trial < trials; trial++ {
		d := NewStatisticalDetector(300, 0.001, 0)
		shooter := mkPeer(byte(trial%250 + 1))
		now := time.Unix(1_700_000_000, 0)
		var last *Evidence
		for i := 0; i < 150; i++ {
			d1 := uint8(rng.Intn(6) + 1)
			d2 := uint8(rng.Intn(6) + 1)
			last = d.Observe(shooter, protocol.DiceRoll{Die1: d1, Die2: d2}, now)
		}
		if last != nil {
			falsePositives++
		}
	}
	// At significance 0.001 we expect roughly 0.1% false positives;
	// allow generous slack for a 200-trial sample.
	if falsePositives > trials/10 {
		t.Fatalf("unexpectedly high false-positive rate: %d/%d", falsePositives, trials)
	}
}
