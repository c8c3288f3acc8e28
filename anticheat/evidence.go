package anticheat

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// EvidenceKind names the category of misbehavior a piece of evidence
// records.
type EvidenceKind string

const (
	EvidenceEquivocation       EvidenceKind = "equivocation"
	EvidenceNoReveal           EvidenceKind = "no_reveal"
	EvidenceInvalidReveal      EvidenceKind = "invalid_reveal"
	EvidenceRevealEquivocation EvidenceKind = "reveal_equivocation"
	EvidenceStatisticalAnomaly EvidenceKind = "statistical_anomaly"
	EvidenceTemporalViolation  EvidenceKind = "temporal_violation"
)

// Severity constants named in SPEC_FULL.md's end-to-end scenarios.
const (
	SeverityNoReveal      = 0.6
	SeverityInvalidReveal = 0.9
	SeverityEquivocation  = 1.0
)

// Evidence is one recorded incident of suspected misbehavior by a peer.
type Evidence struct {
	ID         [32]byte
	Suspect    protocol.PeerID
	Kind       EvidenceKind
	Payload    []byte
	DetectedAt time.Time
	Witnesses  []protocol.PeerID
	Severity   float64
}

// NewEvidence builds an Evidence record with its id derived as
// sha256(suspect || kind || detected_at), per the data model's
// CheatEvidence.evidence_id definition.
func NewEvidence(suspect protocol.PeerID, kind EvidenceKind, payload []byte, detectedAt time.Time, witnesses []protocol.PeerID, severity float64) Evidence {
	if severity < 0 {
		severity = 0
	}
	if severity > 1 {
		severity = 1
	}
	h := sha256.New()
	h.Write(suspect[:])
	h.Write([]byte(kind))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(detectedAt.UnixNano()))
	h.Write(ts[:])
	var id [32]byte
	copy(id[:], h.Sum(nil))
	return Evidence{
		ID:         id,
		Suspect:    suspect,
		Kind:       kind,
		Payload:    payload,
		DetectedAt: detectedAt,
		Witnesses:  append([]protocol.PeerID(nil), witnesses...),
		Severity:   severity,
	}
}

// Store retains evidence for a configurable window, beyond which it
// no longer affects anything but the reputation decay it already
// applied — losing a retained record is a degraded-mode concern, not
// a correctness one.
type Store struct {
	mu        sync.Mutex
	retention time.Duration
	items     []Evidence
}

// NewStore creates an evidence store retaining entries for retention
// (default 1 hour per SPEC_FULL.md's CheatEvidence data model).
func NewStore(retention time.Duration) *Store {
	return &Store{retention: retention}
}

// Record appends e to the store and evicts anything older than the
// retention window as of now.
func (s *Store) Record(e Evidence, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	s.evictLocked(now)
}

func (s *Store) evictLocked(now time.Time) {
	cutoff := now.Add(-s.retention)
	kept := s.items[:0]
	for _, e := range s.items {
		if e.DetectedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	s.items = kept
}

// ForSuspect returns a snapshot of currently retained evidence
// against suspect, newest first is not guaranteed — callers that need
// an order should sort by DetectedAt.
func (s *Store) ForSuspect(suspect protocol.PeerID, now time.Time) []Evidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
	var out []Evidence
	for _, e := range s.items {
		if e.Suspect == suspect {
			out = append(out, e)
		}
	}
	return out
}

// Lookup finds a retained evidence item by id.
func (s *Store) Lookup(id [32]byte, now time.Time) (Evidence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
	for _, e := range s.items {
		if e.ID == id {
			return e, true
		}
	}
	return Evidence{}, false
}

// All returns a snapshot of every retained record.
func (s *Store) All(now time.Time) []Evidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
	return append([]Evidence(nil), s.items...)
}
