// Package randomizer implements the commit-reveal dice protocol:
// every participant commits to a secret nonce before the roll, then
// reveals it; the combined, verified nonces deterministically derive
// both die faces. Structurally grounded on domain/deck's multi-phase
// all-to-all round shape, with the cryptography replaced per
// SPEC_FULL.md §4.6 — a public SHA-256 commitment rather than an
// ElGamal-hidden permutation, since dice values only need to be
// unknown until reveal, not permanently hidden from other players.
package randomizer

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/bitcraps/bitcraps/protocol"
)

// Round collects commitments and reveals for one dice roll of one game.
type Round struct {
	Game        protocol.GameID
	commitments map[protocol.PeerID]protocol.RandomnessCommitment
	reveals     map[protocol.PeerID]protocol.RandomnessReveal
	order       []protocol.PeerID
}

// NewRound starts a fresh commit-reveal round for the given participants.
func NewRound(game protocol.GameID, participants []protocol.PeerID) *Round {
	return &Round{
		Game:        game,
		commitments: map[protocol.PeerID]protocol.RandomnessCommitment{},
		reveals:     map[protocol.PeerID]protocol.RandomnessReveal{},
		order:       append([]protocol.PeerID(nil), participants...),
	}
}

// AddCommitment records a participant's commitment. Returns an error
// if the participant already committed or isn't part of the round.
func (r *Round) AddCommitment(c protocol.RandomnessCommitment) error {
	if !r.isParticipant(c.Player) {
		return fmt.Errorf("randomizer: %s is not part of this round", c.Player)
	}
	if _, exists := r.commitments[c.Player]; exists {
		return fmt.Errorf("randomizer: %s already committed", c.Player)
	}
	if c.Game != r.Game {
		return fmt.Errorf("randomizer: commitment for wrong game")
	}
	r.commitments[c.Player] = c
	return nil
}

// AllCommitted reports whether every participant has committed.
func (r *Round) AllCommitted() bool {
	return len(r.commitments) == len(r.order)
}

// AddReveal validates reveal against the participant's prior
// commitment before recording it. Equivocation/invalid-reveal
// evidence is the caller's responsibility (anticheat); this method
// only reports success/failure.
func (r *Round) AddReveal(reveal protocol.RandomnessReveal) error {
	c, committed := r.commitments[reveal.Player]
	if !committed {
		return fmt.Errorf("randomizer: %s revealed without a prior commitment", reveal.Player)
	}
	if _, exists := r.reveals[reveal.Player]; exists {
		return fmt.Errorf("randomizer: %s already revealed", reveal.Player)
	}
	if !c.Verify(reveal.Nonce) {
		return fmt.Errorf("randomizer: reveal does not match commitment for %s", reveal.Player)
	}
	r.reveals[reveal.Player] = reveal
	return nil
}

// AllRevealed reports whether every participant has both committed and
// revealed.
func (r *Round) AllRevealed() bool {
	return len(r.reveals) == len(r.commitments) && len(r.reveals) == len(r.order)
}

// MissingReveals returns the participants who committed but never
// revealed — grounds for NoReveal evidence.
func (r *Round) MissingReveals() []protocol.PeerID {
	var missing []protocol.PeerID
	for _, p := range r.order {
		if _, committed := r.commitments[p]; !committed {
			continue
		}
		if _, revealed := r.reveals[p]; !revealed {
			missing = append(missing, p)
		}
	}
	return missing
}

// ErrTooFewRevealers is returned when fewer than two participants
// have revealed: SPEC_FULL.md §4.6's failure clause for a griefed
// round ("If < 2 revealers remain, the roll is aborted; bets remain,
// a new round starts").
var ErrTooFewRevealers = fmt.Errorf("randomizer: fewer than two participants revealed; round must be aborted")

// ReadyToResolve reports whether enough participants have revealed to
// safely derive a roll (at least two), whether or not every committer
// revealed.
func (r *Round) ReadyToResolve() bool {
	return len(r.reveals) >= 2
}

// Derive combines every currently revealed nonce into one dice roll:
// d1=(E[0]%6)+1, d2=(E[1]%6)+1 where E is the SHA-256 digest of the
// revealed nonces in sorted byte order ("sorted_concat(nonces_of_revealers)"
// per SPEC_FULL.md §4.6 step 3). Sorting by nonce bytes, rather than
// participant join order, makes the result independent of reveal
// arrival order and lets a griefed round (missing revealer) derive
// identically to a complete one over the same surviving set. Returns
// ErrTooFewRevealers unless at least two participants have revealed.
func (r *Round) Derive() (protocol.DiceRoll, error) {
	if !r.ReadyToResolve() {
		return protocol.DiceRoll{}, ErrTooFewRevealers
	}
	nonces := make([][protocol.NonceSize]byte, 0, len(r.reveals))
	for _, rv := range r.reveals {
		nonces = append(nonces, rv.Nonce)
	}
	sort.Slice(nonces, func(i, j int) bool {
		return bytes.Compare(nonces[i][:], nonces[j][:]) < 0
	})
	h := sha256.New()
	for _, n := range nonces {
		h.Write(n[:])
	}
	e := h.Sum(nil)
	d1 := (e[0] % 6) + 1
	d2 := (e[1] % 6) + 1
	return protocol.DiceRoll{Die1: d1, Die2: d2}, nil
}

func (r *Round) isParticipant(id protocol.PeerID) bool {
	for _, p := range r.order {
		if p == id {
			return true
		}
	}
	return false
}
