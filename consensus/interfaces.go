package consensus

import (
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// StateManager defines how the consensus layer applies a finalized
// operation to the game it governs, the same shape as the teacher's
// poker StateManager (Validate/Apply/GetCurrentPlayer/FindPlayerIndex/
// NotifyBan/GetSession) generalized from a single poker turn to a
// multi-phase craps table.
type StateManager interface {
	// Validate checks whether payload is legal given the current
	// table state and the slot it targets.
	Validate(slot uint64, payload []byte) error

	// Apply executes a validated operation, advancing table state.
	Apply(slot uint64, payload []byte) error

	// CurrentProposer returns the peer allowed to propose for the
	// next slot (the table's leader for that round).
	CurrentProposer() protocol.PeerID

	// IsParticipant reports whether id is a current table participant.
	IsParticipant(id protocol.PeerID) bool

	// NotifyBan builds the ban operation payload for a misbehaving participant.
	NotifyBan(id protocol.PeerID, reason string) ([]byte, error)

	// Snapshot returns an opaque encoding of current table state.
	Snapshot() []byte
}

// Ledger is the append-only, verifiable log of finalized operations,
// the same shape as the teacher's Ledger interface.
type Ledger interface {
	Append(cert Certificate, outcome SlotOutcome) error
	Verify() error
}

// NetworkLayer abstracts peer-to-peer communication, the same shape
// as the teacher's consensus.NetworkLayer.
type NetworkLayer interface {
	Broadcast(data []byte, root protocol.PeerID) ([]byte, error)
	BroadcastWithTimeout(data []byte, root protocol.PeerID, timeout time.Duration) ([]byte, error)
	AllToAll(data []byte) (map[protocol.PeerID][]byte, error)
	AllToAllWithTimeout(data []byte, timeout time.Duration) (map[protocol.PeerID][]byte, error)
	Self() protocol.PeerID
	Peers() []protocol.PeerID
	Close() error
}
