package protocol

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"

	"github.com/bitcraps/bitcraps/identity"
)

// PeerID identifies a node on the wire, reusing identity's 32-byte
// Ed25519-derived id.
type PeerID = identity.PeerID

// MessageID deduplicates packets across the mesh. 16 bytes, generated
// with google/uuid rather than hand-rolled random bytes (original_source
// protocol/types.rs generates this with the rand crate; google/uuid is
// the pack's equivalent for a random 128-bit identifier).
type MessageID = uuid.UUID

// NewMessageID returns a fresh random message id.
func NewMessageID() MessageID {
	return uuid.New()
}

// GameID identifies one craps table for its entire lifetime.
type GameID = uuid.UUID

// NewGameID returns a fresh random game id.
func NewGameID() GameID {
	return uuid.New()
}

// CrapTokens is an unsigned integer-only balance; no fractional units
// exist so payouts never require rounding.
type CrapTokens uint64

// CanSubtract reports whether amt can be subtracted without underflow.
func (c CrapTokens) CanSubtract(amt CrapTokens) bool {
	return c >= amt
}

// Subtract returns c-amt, or an error if it would underflow.
func (c CrapTokens) Subtract(amt CrapTokens) (CrapTokens, error) {
	if !c.CanSubtract(amt) {
		return 0, fmt.Errorf("protocol: insufficient balance: have %d, need %d", c, amt)
	}
	return c - amt, nil
}

// Add returns c+amt.
func (c CrapTokens) Add(amt CrapTokens) CrapTokens {
	return c + amt
}

// Mul returns c*factor, used to compute integer payout ratios.
func (c CrapTokens) Mul(factor CrapTokens) CrapTokens {
	return c * factor
}

// BetKind enumerates every wager a player may place at a craps table,
// matching the registry in SPEC_FULL.md §6.
type BetKind struct {
	Name   string
	Number int // meaningful only for Hardway/Place
}

var (
	BetPass      = BetKind{Name: "Pass"}
	BetDontPass  = BetKind{Name: "DontPass"}
	BetCome      = BetKind{Name: "Come"}
	BetDontCome  = BetKind{Name: "DontCome"}
	BetField     = BetKind{Name: "Field"}
	BetAny7      = BetKind{Name: "Any7"}
	BetAny11     = BetKind{Name: "Any11"}
	BetAnyCraps  = BetKind{Name: "AnyCraps"}
)

// Hardway returns the Hardway(n) bet kind for n in {4,6,8,10}.
func Hardway(n int) BetKind { return BetKind{Name: "Hardway", Number: n} }

// Place returns the Place(n) bet kind for n in {4,5,6,8,9,10}.
func Place(n int) BetKind { return BetKind{Name: "Place", Number: n} }

// String renders the bet kind for logs and errors.
func (b BetKind) String() string {
	if b.Number != 0 {
		return fmt.Sprintf("%s(%d)", b.Name, b.Number)
	}
	return b.Name
}

// Bet is a single wager placed by a peer in a game.
type Bet struct {
	Player PeerID
	Kind   BetKind
	Amount CrapTokens
}

// GamePhase is the current state of the dice-resolution cycle for a
// table. Point carries the established point number (4,5,6,8,9,10).
type GamePhase struct {
	Kind  GamePhaseKind
	Point int
}

type GamePhaseKind uint8

const (
	PhaseWaitingForPlayers GamePhaseKind = iota
	PhaseComeOut
	PhasePoint
	PhaseResolved
)

func (p GamePhase) String() string {
	switch p.Kind {
	case PhaseWaitingForPlayers:
		return "WaitingForPlayers"
	case PhaseComeOut:
		return "ComeOut"
	case PhasePoint:
		return fmt.Sprintf("Point(%d)", p.Point)
	case PhaseResolved:
		return "Resolved"
	default:
		return "Unknown"
	}
}

// DiceRoll is the pair of die faces from one resolved commit-reveal round.
type DiceRoll struct {
	Die1 uint8
	Die2 uint8
}

// Total returns the sum of both dice.
func (d DiceRoll) Total() int { return int(d.Die1) + int(d.Die2) }

// IsHardWay reports whether the roll is a matching pair (e.g. 3-3 for
// hard 6), the only way a Hardway bet can win.
func (d DiceRoll) IsHardWay() bool { return d.Die1 == d.Die2 }

// IsCraps reports whether the total is 2, 3, or 12.
func (d DiceRoll) IsCraps() bool {
	t := d.Total()
	return t == 2 || t == 3 || t == 12
}

// IsNatural reports whether the total is 7 or 11.
func (d DiceRoll) IsNatural() bool {
	t := d.Total()
	return t == 7 || t == 11
}

// GameState is the full public state of a table at a point in time.
type GameState struct {
	ID      GameID
	Phase   GamePhase
	Players []PeerID
	Bets    []Bet
	Round   uint64
}

// RandomnessCommitment binds a player to a secret nonce before the
// roll without revealing it, per original_source protocol/types.rs:
// sha256(nonce || player_id || game_id).
type RandomnessCommitment struct {
	Player PeerID
	Game   GameID
	Digest [CommitmentSize]byte
}

// NewRandomnessCommitment hashes nonce together with the player and
// game ids into a public commitment.
func NewRandomnessCommitment(player PeerID, game GameID, nonce [NonceSize]byte) RandomnessCommitment {
	h := sha256.New()
	h.Write(nonce[:])
	h.Write(player[:])
	h.Write(game[:])
	var digest [CommitmentSize]byte
	copy(digest[:], h.Sum(nil))
	return RandomnessCommitment{Player: player, Game: game, Digest: digest}
}

// Verify checks that nonce actually produces this commitment's digest.
func (c RandomnessCommitment) Verify(nonce [NonceSize]byte) bool {
	recomputed := NewRandomnessCommitment(c.Player, c.Game, nonce)
	return recomputed.Digest == c.Digest
}

// RandomnessReveal discloses the nonce behind a prior commitment.
type RandomnessReveal struct {
	Player PeerID
	Game   GameID
	Nonce  [NonceSize]byte
}

// GameResult is the outcome of one resolved roll, including every
// payout computed against it.
type GameResult struct {
	Game    GameID
	Roll    DiceRoll
	Round   uint64
	Payouts map[PeerID]CrapTokens
}
