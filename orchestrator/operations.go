// Package orchestrator wires a craps table, a commit-reveal
// randomness round and the running payout ledger into one
// consensus.StateManager, generalizing the teacher's
// application.GameOrchestrator / domain/poker.PokerManager pairing
// from a single poker hand to a craps table's come-out/point cycle.
package orchestrator

import "github.com/bitcraps/bitcraps/protocol"

// OperationKind enumerates the distinct game operations a consensus
// slot can carry, the craps analog of the teacher's poker ActionType
// taxonomy (bet/call/raise/fold/...).
type OperationKind string

const (
	OpJoin      OperationKind = "join"
	OpStart     OperationKind = "start"
	OpPlaceBet  OperationKind = "place_bet"
	OpCommit    OperationKind = "commit"
	OpReveal    OperationKind = "reveal"
	OpApplyRoll OperationKind = "apply_roll"
	OpBan       OperationKind = "ban"
)

// Operation is the payload every consensus.Action carries for a craps
// table. Only the optional fields that Kind uses are populated: none
// for start, Player and Reason for ban, and exactly one for the rest.
type Operation struct {
	Kind       OperationKind                  `json:"kind"`
	Player     protocol.PeerID                `json:"player,omitempty"`
	Bet        *protocol.Bet                  `json:"bet,omitempty"`
	Commitment *protocol.RandomnessCommitment `json:"commitment,omitempty"`
	Reveal     *protocol.RandomnessReveal     `json:"reveal,omitempty"`
	Roll       *protocol.DiceRoll             `json:"roll,omitempty"`
	Reason     string                         `json:"reason,omitempty"`
}
