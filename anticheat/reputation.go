package anticheat

import (
	"math"
	"sync"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// BaseReputation is every peer's starting score before any event.
const BaseReputation = 0.5

// impact is one scored contribution to a peer's reputation: negative
// for evidence (impact = -severity), positive for an attestation.
type impact struct {
	value float64
	at    time.Time
}

// Reputation tracks per-peer exponential-decay reputation scores.
// Writes go through RecordEvidence and RecordAttestation under the
// writer lock;
// Score reads take a reader lock, matching the spec's shared-resource
// model for reputation.
type Reputation struct {
	mu       sync.RWMutex
	halfLife time.Duration
	events   map[protocol.PeerID][]impact
}

// NewReputation creates a reputation tracker with the given half-life
// (default 7 days per SPEC_FULL.md).
func NewReputation(halfLife time.Duration) *Reputation {
	return &Reputation{halfLife: halfLife, events: map[protocol.PeerID][]impact{}}
}

// RecordEvidence applies impact = -severity at the evidence's
// detection time.
func (r *Reputation) RecordEvidence(e Evidence) {
	r.record(e.Suspect, -e.Severity, e.DetectedAt)
}

// RecordAttestation applies a positive contribution (e.g. a clean,
// on-time reveal) at t.
func (r *Reputation) RecordAttestation(peer protocol.PeerID, value float64, t time.Time) {
	if value < 0 {
		value = 0
	}
	r.record(peer, value, t)
}

func (r *Reputation) record(peer protocol.PeerID, value float64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[peer] = append(r.events[peer], impact{value: value, at: at})
}

// Score computes clamp01(0.5 + sum(impact_i * 0.5^((t-t_i)/half_life)))
// as of now, per SPEC_FULL.md §4.8's reputation-decay formula.
func (r *Reputation) Score(peer protocol.PeerID, now time.Time) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	score := BaseReputation
	if r.halfLife <= 0 {
		return clamp01(score)
	}
	for _, ev := range r.events[peer] {
		age := now.Sub(ev.at).Seconds()
		if age < 0 {
			age = 0
		}
		decay := math.Pow(0.5, age/r.halfLife.Seconds())
		score += ev.value * decay
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Reset discards every recorded event for peer, restoring it to base
// reputation. Used when a peer is unbanned and the operator elects to
// clear its history.
func (r *Reputation) Reset(peer protocol.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, peer)
}
