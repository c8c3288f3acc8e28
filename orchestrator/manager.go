package orchestrator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bitcraps/bitcraps/craps"
	"github.com/bitcraps/bitcraps/protocol"
	"github.com/bitcraps/bitcraps/randomizer"
)

// GameManager implements consensus.StateManager over one craps.Table,
// the craps analog of the teacher's domain/poker.PokerManager:
// Validate/Apply dispatch on an operation's Kind instead of a single
// poker ActionType.
type GameManager struct {
	mu                 sync.Mutex
	table              *craps.Table
	round              *randomizer.Round
	payouts            map[protocol.PeerID]protocol.CrapTokens
	lastMissingReveals []protocol.PeerID
	lastPayouts        map[protocol.PeerID]protocol.CrapTokens
	lastRoll           protocol.DiceRoll
}

// NewGameManager wraps table for use by a consensus.Node.
func NewGameManager(table *craps.Table) *GameManager {
	return &GameManager{
		table:   table,
		payouts: map[protocol.PeerID]protocol.CrapTokens{},
	}
}

func decodeOperation(payload []byte) (Operation, error) {
	var op Operation
	if err := json.Unmarshal(payload, &op); err != nil {
		return Operation{}, fmt.Errorf("orchestrator: malformed operation: %w", err)
	}
	return op, nil
}

// Validate implements consensus.StateManager.
func (g *GameManager) Validate(slot uint64, payload []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	op, err := decodeOperation(payload)
	if err != nil {
		return err
	}

	switch op.Kind {
	case OpJoin:
		if g.table.Phase.Kind != protocol.PhaseWaitingForPlayers {
			return fmt.Errorf("orchestrator: table has already started")
		}
	case OpStart:
		if len(g.table.Players) == 0 {
			return fmt.Errorf("orchestrator: cannot start a table with no players")
		}
	case OpPlaceBet:
		if op.Bet == nil {
			return fmt.Errorf("orchestrator: place_bet requires a bet")
		}
		return g.table.ValidateBet(*op.Bet)
	case OpCommit:
		if op.Commitment == nil {
			return fmt.Errorf("orchestrator: commit requires a commitment")
		}
		if g.round == nil {
			return fmt.Errorf("orchestrator: no open commit-reveal round")
		}
	case OpReveal:
		if op.Reveal == nil {
			return fmt.Errorf("orchestrator: reveal requires a reveal")
		}
		if g.round == nil {
			return fmt.Errorf("orchestrator: no open commit-reveal round")
		}
	case OpApplyRoll:
		if op.Roll == nil {
			return fmt.Errorf("orchestrator: apply_roll requires a roll")
		}
		if g.round == nil || !g.round.ReadyToResolve() {
			return fmt.Errorf("orchestrator: cannot apply a roll before at least two participants have revealed")
		}
		derived, err := g.round.Derive()
		if err != nil {
			return err
		}
		if derived != *op.Roll {
			return fmt.Errorf("orchestrator: proposed roll does not match the derived commit-reveal outcome")
		}
	case OpBan:
		if !g.table.IsParticipant(op.Player) {
			return fmt.Errorf("orchestrator: %s is not a participant", op.Player)
		}
	default:
		return fmt.Errorf("orchestrator: unknown operation kind %q", op.Kind)
	}
	return nil
}

// Apply implements consensus.StateManager: mutates table and round
// state for an operation that already cleared Validate and reached
// quorum.
func (g *GameManager) Apply(slot uint64, payload []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	op, err := decodeOperation(payload)
	if err != nil {
		return err
	}

	switch op.Kind {
	case OpJoin:
		return g.table.Join(op.Player)
	case OpStart:
		if err := g.table.Start(); err != nil {
			return err
		}
		g.round = randomizer.NewRound(g.table.ID, append([]protocol.PeerID(nil), g.table.Players...))
		return nil
	case OpPlaceBet:
		return g.table.PlaceBet(*op.Bet)
	case OpCommit:
		return g.round.AddCommitment(*op.Commitment)
	case OpReveal:
		return g.round.AddReveal(*op.Reveal)
	case OpApplyRoll:
		payouts, err := g.table.ApplyRoll(*op.Roll)
		if err != nil {
			return err
		}
		for player, amount := range payouts {
			g.payouts[player] += amount
		}
		g.lastPayouts = payouts
		g.lastRoll = *op.Roll
		g.lastMissingReveals = g.round.MissingReveals()
		g.round = randomizer.NewRound(g.table.ID, append([]protocol.PeerID(nil), g.table.Players...))
		return nil
	case OpBan:
		g.table.Ban(op.Player)
		return nil
	default:
		return fmt.Errorf("orchestrator: unknown operation kind %q", op.Kind)
	}
}

// CurrentProposer implements consensus.StateManager.
func (g *GameManager) CurrentProposer() protocol.PeerID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.table.CurrentProposer()
}

// IsParticipant implements consensus.StateManager. Before the table has
// started, nobody has joined yet, so every signer the consensus layer
// already trusts is eligible to vote on the bootstrap joins; once the
// table starts, eligibility narrows to the table's actual players.
func (g *GameManager) IsParticipant(id protocol.PeerID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.table.Phase.Kind == protocol.PhaseWaitingForPlayers {
		return true
	}
	return g.table.IsParticipant(id)
}

// NotifyBan implements consensus.StateManager, building the ban
// operation a proposer broadcasts next.
func (g *GameManager) NotifyBan(id protocol.PeerID, reason string) ([]byte, error) {
	return json.Marshal(Operation{Kind: OpBan, Player: id, Reason: reason})
}

// Snapshot implements consensus.StateManager.
func (g *GameManager) Snapshot() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, _ := json.Marshal(g.table.State())
	return b
}

// OpenRound reports the commit-reveal round currently collecting
// commitments/reveals for the table's next roll, or nil before the
// table has started. A fresh round opens as soon as each roll applies.
func (g *GameManager) OpenRound() *randomizer.Round {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

// LastMissingReveals returns the participants who committed but never
// revealed for the most recently applied roll, so a caller (the
// anticheat wiring in cmd/) can file NoReveal evidence against them
// once a round resolves from fewer than all revealers.
func (g *GameManager) LastMissingReveals() []protocol.PeerID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]protocol.PeerID(nil), g.lastMissingReveals...)
}

// State returns a snapshot of the underlying table's public state.
func (g *GameManager) State() protocol.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.table.State()
}

// LastResult reports the most recently applied roll and the payouts it
// produced, or ok=false if no roll has been applied yet.
func (g *GameManager) LastResult() (result protocol.GameResult, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastPayouts == nil {
		return protocol.GameResult{}, false
	}
	payouts := make(map[protocol.PeerID]protocol.CrapTokens, len(g.lastPayouts))
	for k, v := range g.lastPayouts {
		payouts[k] = v
	}
	return protocol.GameResult{
		Game:    g.table.ID,
		Roll:    g.lastRoll,
		Round:   g.table.Round,
		Payouts: payouts,
	}, true
}

// Payouts returns a copy of the cumulative payouts recorded across
// every roll this manager has applied.
func (g *GameManager) Payouts() map[protocol.PeerID]protocol.CrapTokens {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[protocol.PeerID]protocol.CrapTokens, len(g.payouts))
	for k, v := range g.payouts {
		out[k] = v
	}
	return out
}
