package ledger

import "github.com/bitcraps/bitcraps/consensus"

// Block is one entry in the append-only ledger: a finalized (or
// skipped) consensus slot together with the hash chain linking it to
// the previous entry.
type Block struct {
	Index     int                   `json:"index"`
	Timestamp int64                 `json:"timestamp"`
	PrevHash  string                `json:"prev_hash"`
	Hash      string                `json:"hash"`
	Game      string                `json:"game"`
	Slot      uint64                `json:"slot"`
	Outcome   consensus.SlotOutcome `json:"outcome"`
	Proposal  *consensus.Action     `json:"proposal,omitempty"`
	Votes     []consensus.Vote      `json:"votes"`
	Reason    string                `json:"reason,omitempty"`
}
