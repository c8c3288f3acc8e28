package anticheat

import (
	"sync"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// chiSquareCritical maps a significance level to the chi-square
// critical value at 5 degrees of freedom (6 die faces - 1), the
// standard table used to test a single d6 for uniformity.
var chiSquareCritical = map[float64]float64{
	0.10:  9.236,
	0.05:  11.070,
	0.01:  15.086,
	0.001: 20.515,
}

// criticalValue looks up the closest configured significance level,
// defaulting to the spec's 0.001 critical value if significance isn't
// one of the standard levels.
func criticalValue(significance float64) float64 {
	if v, ok := chiSquareCritical[significance]; ok {
		return v
	}
	return chiSquareCritical[0.001]
}

// StatisticalDetector watches each shooter's rolled die faces for
// bias via a chi-square goodness-of-fit test against uniform-on-1..6,
// per SPEC_FULL.md §4.8.1. Each physical die face (not the 2-12 sum)
// is an independent sample: a shooter's window accumulates both dice
// of every roll.
type StatisticalDetector struct {
	mu           sync.Mutex
	minSamples   int
	significance float64
	faces        map[protocol.PeerID][6]int // counts of face 1..6, indices 0..5
	windowSize   int
}

// NewStatisticalDetector creates a detector requiring minSamples
// (default 30) die faces per shooter before testing, at the given
// significance level (default 0.001). windowSize is stored but not
// applied: the per-shooter face counts cover every roll observed since
// the last Reset, not a rolling window of recent rolls.
func NewStatisticalDetector(minSamples int, significance float64, windowSize int) *StatisticalDetector {
	return &StatisticalDetector{
		minSamples:   minSamples,
		significance: significance,
		faces:        map[protocol.PeerID][6]int{},
		windowSize:   windowSize,
	}
}

// Observe records one finalized roll from shooter and returns
// evidence if the shooter's accumulated window is now statistically
// anomalous. A nil return means either too few samples or no anomaly.
func (d *StatisticalDetector) Observe(shooter protocol.PeerID, roll protocol.DiceRoll, now time.Time) *Evidence {
	d.mu.Lock()
	defer d.mu.Unlock()

	counts := d.faces[shooter]
	counts[roll.Die1-1]++
	counts[roll.Die2-1]++
	d.faces[shooter] = counts

	n := 0
	for _, c := range counts {
		n += c
	}
	if n < d.minSamples {
		return nil
	}

	chiSq := chiSquareStatistic(counts, n)
	critical := criticalValue(d.significance)
	if chiSq <= critical {
		return nil
	}

	severity := (chiSq - critical) / critical
	if severity > 1 {
		severity = 1
	}
	ev := NewEvidence(shooter, EvidenceStatisticalAnomaly, nil, now, nil, severity)
	return &ev
}

// chiSquareStatistic computes sum((observed-expected)^2/expected)
// over the six die faces, expected = n/6.
func chiSquareStatistic(counts [6]int, n int) float64 {
	expected := float64(n) / 6.0
	var stat float64
	for _, c := range counts {
		diff := float64(c) - expected
		stat += (diff * diff) / expected
	}
	return stat
}

// SampleCount reports how many die faces have been observed for shooter.
func (d *StatisticalDetector) SampleCount(shooter protocol.PeerID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	counts := d.faces[shooter]
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

// Reset clears accumulated samples for shooter, e.g. when a new
// shooter takes over after a seven-out.
func (d *StatisticalDetector) Reset(shooter protocol.PeerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.faces, shooter)
}
