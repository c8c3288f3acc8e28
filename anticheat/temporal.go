package anticheat

import (
	"fmt"
	"sync"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// TemporalDetector validates the timestamp of every finalized
// operation against per-peer history and the local clock, per
// SPEC_FULL.md §4.8.2. A rejection is protocol-plane evidence, never
// a transport error (SPEC_FULL.md §7): the operation already
// finalized by the time this check runs; the detector can only flag
// the peer, not retroactively un-finalize the op.
type TemporalDetector struct {
	mu              sync.Mutex
	maxFutureSkew   time.Duration
	maxPastSkew     time.Duration
	minOperationGap time.Duration
	lastOpTime      map[protocol.PeerID]time.Time
}

// NewTemporalDetector creates a detector with the given bounds
// (defaults: 30s future skew, 5m past skew, 100ms minimum interval).
func NewTemporalDetector(maxFutureSkew, maxPastSkew, minOperationGap time.Duration) *TemporalDetector {
	return &TemporalDetector{
		maxFutureSkew:   maxFutureSkew,
		maxPastSkew:     maxPastSkew,
		minOperationGap: minOperationGap,
		lastOpTime:      map[protocol.PeerID]time.Time{},
	}
}

// Validate checks opTime (the operation's own claimed timestamp) for
// peer against localNow and the peer's operation history. It returns
// nil and records opTime as the peer's new last-seen time when valid;
// otherwise it returns the violation without updating history (a
// rejected operation does not become the new baseline).
func (d *TemporalDetector) Validate(peer protocol.PeerID, opTime, localNow time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if opTime.After(localNow.Add(d.maxFutureSkew)) {
		return fmt.Errorf("anticheat: operation timestamp %s is more than %s ahead of local clock", opTime, d.maxFutureSkew)
	}
	if opTime.Before(localNow.Add(-d.maxPastSkew)) {
		return fmt.Errorf("anticheat: operation timestamp %s is more than %s behind local clock", opTime, d.maxPastSkew)
	}

	if prev, seen := d.lastOpTime[peer]; seen {
		if opTime.Before(prev) {
			return fmt.Errorf("anticheat: operation timestamp %s is out of order relative to previous %s", opTime, prev)
		}
		if opTime.Sub(prev) < d.minOperationGap {
			return fmt.Errorf("anticheat: operation arrived only %s after the previous one, minimum is %s", opTime.Sub(prev), d.minOperationGap)
		}
	}

	d.lastOpTime[peer] = opTime
	return nil
}

// ValidateAndRecord runs Validate, and on failure builds a
// TemporalViolation evidence record rather than returning the bare error.
func (d *TemporalDetector) ValidateAndRecord(peer protocol.PeerID, opTime, localNow time.Time) (ok bool, ev *Evidence) {
	if err := d.Validate(peer, opTime, localNow); err != nil {
		e := NewEvidence(peer, EvidenceTemporalViolation, []byte(err.Error()), localNow, nil, 0.3)
		return false, &e
	}
	return true, nil
}

// Forget drops history for peer, e.g. after it is banned and removed
// from the active validator set.
func (d *TemporalDetector) Forget(peer protocol.PeerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.lastOpTime, peer)
}
