package craps

import (
	"fmt"

	"github.com/bitcraps/bitcraps/protocol"
)

// Table is the full state of one craps game, the craps analog of the
// teacher's poker.Session: a single-writer struct mutated only by
// applying finalized consensus operations.
type Table struct {
	ID                protocol.GameID
	Phase             protocol.GamePhase
	Players           []protocol.PeerID
	Bets              []protocol.Bet
	Round             uint64
	leader            int // index into Players: the current proposer
	bootstrapProposer protocol.PeerID
	banned            map[protocol.PeerID]bool
}

// NewTable creates a table waiting for players to join. bootstrapProposer
// is the only peer allowed to propose the table's first operations (the
// initial joins and the start) before CurrentProposer has a real player
// to rotate over.
func NewTable(id protocol.GameID, bootstrapProposer protocol.PeerID) *Table {
	return &Table{
		ID:                id,
		Phase:             protocol.GamePhase{Kind: protocol.PhaseWaitingForPlayers},
		bootstrapProposer: bootstrapProposer,
		banned:            map[protocol.PeerID]bool{},
	}
}

// Join adds a player to a table that hasn't started a come-out roll yet.
func (t *Table) Join(id protocol.PeerID) error {
	if t.Phase.Kind != protocol.PhaseWaitingForPlayers {
		return fmt.Errorf("craps: table %s already started, cannot join", t.ID)
	}
	for _, p := range t.Players {
		if p == id {
			return fmt.Errorf("craps: player already joined")
		}
	}
	t.Players = append(t.Players, id)
	return nil
}

// Start transitions a table with at least one player into the
// come-out phase.
func (t *Table) Start() error {
	if len(t.Players) == 0 {
		return fmt.Errorf("craps: cannot start table with no players")
	}
	t.Phase = protocol.GamePhase{Kind: protocol.PhaseComeOut}
	return nil
}

// ValidateBet checks a bet against table and amount constraints
// without recording it: Place/Hardway numbers outside the spec's
// defined sets are rejected, and Place(4/5/6/8/9/10) amounts that
// don't divide evenly into their payout ratio are rejected.
func (t *Table) ValidateBet(b protocol.Bet) error {
	if t.banned[b.Player] {
		return fmt.Errorf("craps: player %s is banned from this table", b.Player)
	}
	if b.Amount < protocol.CrapTokens(protocol.MinBetAmount) || b.Amount > protocol.CrapTokens(protocol.MaxBetAmount) {
		return fmt.Errorf("craps: bet amount %d out of range [%d,%d]", b.Amount, protocol.MinBetAmount, protocol.MaxBetAmount)
	}
	if b.Kind.Name == "Place" {
		if !isPlaceNumber(b.Kind.Number) {
			return fmt.Errorf("craps: Place(%d) is not a valid point number", b.Kind.Number)
		}
		_, ratioDen := placeRatio(b.Kind.Number)
		if uint64(b.Amount)%ratioDen != 0 {
			return ErrIndivisibleAmount
		}
	}
	if b.Kind.Name == "Hardway" && !isHardwayNumber(b.Kind.Number) {
		return fmt.Errorf("craps: Hardway(%d) is not a valid hardway number", b.Kind.Number)
	}
	if (b.Kind.Name == "Come" || b.Kind.Name == "DontCome") && t.Phase.Kind == protocol.PhaseComeOut {
		return fmt.Errorf("craps: %s is illegal during ComeOut", b.Kind.Name)
	}
	return nil
}

// PlaceBet validates and records a new bet.
func (t *Table) PlaceBet(b protocol.Bet) error {
	if err := t.ValidateBet(b); err != nil {
		return err
	}
	t.Bets = append(t.Bets, b)
	return nil
}

// ApplyRoll resolves every bet against roll, advances the phase
// (establishing or clearing the point), and returns the payouts due.
func (t *Table) ApplyRoll(roll protocol.DiceRoll) (map[protocol.PeerID]protocol.CrapTokens, error) {
	payouts, stays, err := Resolve(t.Phase, roll, t.Bets)
	if err != nil {
		return nil, err
	}
	t.Bets = stays
	t.Round++

	switch t.Phase.Kind {
	case protocol.PhaseComeOut:
		total := roll.Total()
		if total == 7 || total == 11 || total == 2 || total == 3 || total == 12 {
			// round resolves immediately; table remains ready for another come-out
			t.Phase = protocol.GamePhase{Kind: protocol.PhaseComeOut}
		} else {
			t.Phase = protocol.GamePhase{Kind: protocol.PhasePoint, Point: total}
		}
	case protocol.PhasePoint:
		total := roll.Total()
		if total == t.Phase.Point || total == 7 {
			t.Phase = protocol.GamePhase{Kind: protocol.PhaseComeOut}
		}
	}
	t.advanceLeader()
	return payouts, nil
}

func (t *Table) advanceLeader() {
	if len(t.Players) == 0 {
		return
	}
	t.leader = (t.leader + 1) % len(t.Players)
}

// CurrentProposer implements consensus.StateManager. Before any player
// has joined, the bootstrap proposer supplied to NewTable stands in for
// the not-yet-established rotation.
func (t *Table) CurrentProposer() protocol.PeerID {
	if len(t.Players) == 0 {
		return t.bootstrapProposer
	}
	return t.Players[t.leader]
}

// IsParticipant implements consensus.StateManager.
func (t *Table) IsParticipant(id protocol.PeerID) bool {
	for _, p := range t.Players {
		if p == id {
			return true
		}
	}
	return false
}

// Ban removes a player from the table's active participant set,
// preserving which peer CurrentProposer points at across the shift
// unless the banned player was itself the current proposer.
func (t *Table) Ban(id protocol.PeerID) {
	t.banned[id] = true
	if len(t.Players) == 0 {
		return
	}
	proposer := t.Players[t.leader]
	for i, p := range t.Players {
		if p == id {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			break
		}
	}
	if len(t.Players) == 0 {
		t.leader = 0
		return
	}
	if id == proposer {
		t.leader = t.leader % len(t.Players)
		return
	}
	for i, p := range t.Players {
		if p == proposer {
			t.leader = i
			return
		}
	}
	t.leader = t.leader % len(t.Players)
}

// State returns a read-only snapshot of the public table state.
func (t *Table) State() protocol.GameState {
	return protocol.GameState{
		ID:      t.ID,
		Phase:   t.Phase,
		Players: append([]protocol.PeerID(nil), t.Players...),
		Bets:    append([]protocol.Bet(nil), t.Bets...),
		Round:   t.Round,
	}
}
