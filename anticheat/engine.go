package anticheat

import (
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// Engine bundles every detector and the reputation/ban stores behind
// one entry point; the cmd demo feeds it each finalized roll and each
// missing reveal through ObserveRoll and ObserveNoReveal.
type Engine struct {
	Evidence    *Store
	Reputation  *Reputation
	Statistical *StatisticalDetector
	Temporal    *TemporalDetector
	Bans        *BanSystem
}

// NewEngine assembles an Engine from the given retention, decay,
// detector and ban-vote settings.
func NewEngine(
	evidenceRetention time.Duration,
	reputationHalfLife time.Duration,
	minSamples int,
	chiSquareSignificance float64,
	maxFutureSkew, maxPastSkew, minOperationInterval time.Duration,
	totalValidators int,
	banVoteFraction float64,
) *Engine {
	return &Engine{
		Evidence:    NewStore(evidenceRetention),
		Reputation:  NewReputation(reputationHalfLife),
		Statistical: NewStatisticalDetector(minSamples, chiSquareSignificance, 0),
		Temporal:    NewTemporalDetector(maxFutureSkew, maxPastSkew, minOperationInterval),
		Bans:        NewBanSystem(totalValidators, banVoteFraction),
	}
}

// file records evidence into both the retained store and the
// reputation decay ledger, the two effects every detector triggers.
func (e *Engine) file(ev Evidence) Evidence {
	e.Evidence.Record(ev, ev.DetectedAt)
	e.Reputation.RecordEvidence(ev)
	return ev
}

// ObserveRoll feeds one finalized dice roll from shooter into the
// statistical detector and files evidence if it crosses significance.
func (e *Engine) ObserveRoll(shooter protocol.PeerID, roll protocol.DiceRoll, now time.Time) *Evidence {
	ev := e.Statistical.Observe(shooter, roll, now)
	if ev == nil {
		return nil
	}
	filed := e.file(*ev)
	return &filed
}

// ObserveTimestamp validates one operation's claimed timestamp and
// files temporal evidence on rejection.
func (e *Engine) ObserveTimestamp(peer protocol.PeerID, opTime, localNow time.Time) *Evidence {
	ok, ev := e.Temporal.ValidateAndRecord(peer, opTime, localNow)
	if ok {
		return nil
	}
	filed := e.file(*ev)
	return &filed
}

// ObserveNoReveal files NoReveal evidence (severity 0.6) against a
// participant who committed but never revealed within the window.
func (e *Engine) ObserveNoReveal(peer protocol.PeerID, witnesses []protocol.PeerID, now time.Time) Evidence {
	ev := NewEvidence(peer, EvidenceNoReveal, nil, now, witnesses, SeverityNoReveal)
	return e.file(ev)
}

// ObserveInvalidReveal files InvalidReveal evidence (severity 0.9)
// against a reveal whose hash doesn't match its commitment.
func (e *Engine) ObserveInvalidReveal(peer protocol.PeerID, witnesses []protocol.PeerID, now time.Time) Evidence {
	ev := NewEvidence(peer, EvidenceInvalidReveal, nil, now, witnesses, SeverityInvalidReveal)
	return e.file(ev)
}

// ObserveRevealEquivocation files maximum-severity evidence against a
// peer that revealed twice for the same round.
func (e *Engine) ObserveRevealEquivocation(peer protocol.PeerID, witnesses []protocol.PeerID, now time.Time) Evidence {
	ev := NewEvidence(peer, EvidenceRevealEquivocation, nil, now, witnesses, SeverityEquivocation)
	return e.file(ev)
}

// ObserveConsensusEquivocation files maximum-severity evidence against
// a validator caught signing two distinct votes for the same slot.
func (e *Engine) ObserveConsensusEquivocation(peer protocol.PeerID, payload []byte, witnesses []protocol.PeerID, now time.Time) Evidence {
	ev := NewEvidence(peer, EvidenceEquivocation, payload, now, witnesses, SeverityEquivocation)
	return e.file(ev)
}

// ProposeBan is a convenience wrapper that casts the engine's own vote
// (as one validator among many) and reports whether the proposal has
// now reached quorum.
func (e *Engine) ProposeBan(p BanProposal, self protocol.PeerID) bool {
	return e.Bans.VoteBan(p.Suspect, self, VoteBan)
}
