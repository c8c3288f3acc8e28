// Package consensus implements the single-decree, leader-rotating BFT
// protocol that orders every game operation: propose, vote, commit,
// generalized from the mental-poker teacher's per-action BFT protocol
// to a per-(game, slot) log with round timeouts and equivocation
// detection.
package consensus

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitcraps/bitcraps/protocol"
)

// Action is one signed, proposed operation for a specific game and
// slot, the same shape as the teacher's consensus.Action generalized
// from a single outstanding proposal to a per-slot log entry.
type Action struct {
	ID         uuid.UUID       `json:"id"`
	Game       protocol.GameID `json:"game"`
	Slot       uint64          `json:"slot"`
	ProposerID protocol.PeerID `json:"proposer_id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  int64           `json:"ts"`
	Signature  []byte          `json:"sig,omitempty"`
}

// SigningBytes implements identity.Signer: the signature field is
// cleared before marshaling, exactly like the teacher's
// Action.serialize().
func (a *Action) SigningBytes() ([]byte, error) {
	tmp := *a
	tmp.Signature = nil
	return json.Marshal(tmp)
}

// Sign signs the action with priv, stamping the current time.
func (a *Action) Sign(priv ed25519.PrivateKey) error {
	a.Timestamp = time.Now().UnixNano()
	b, err := a.SigningBytes()
	if err != nil {
		return err
	}
	a.Signature = ed25519.Sign(priv, b)
	return nil
}

// VerifySignature checks the action's signature against pub.
func (a *Action) VerifySignature(pub ed25519.PublicKey) (bool, error) {
	if len(a.Signature) == 0 {
		return false, fmt.Errorf("consensus: action missing signature")
	}
	b, err := a.SigningBytes()
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, b, a.Signature), nil
}

// MakeAction builds a new unsigned Action for the given slot.
func MakeAction(game protocol.GameID, slot uint64, proposer protocol.PeerID, kind string, payload any) (Action, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("consensus: marshal payload: %w", err)
	}
	return Action{
		ID:         uuid.New(),
		Game:       game,
		Slot:       slot,
		ProposerID: proposer,
		Kind:       kind,
		Payload:    raw,
	}, nil
}

// VoteValue is a validator's accept/reject decision on a proposal.
type VoteValue string

const (
	VoteAccept VoteValue = "ACCEPT"
	VoteReject VoteValue = "REJECT"
)

// Vote is one validator's signed decision on an Action.
type Vote struct {
	ActionID  uuid.UUID       `json:"action_id"`
	Slot      uint64          `json:"slot"`
	VoterID   protocol.PeerID `json:"voter_id"`
	Value     VoteValue       `json:"value"`
	Reason    string          `json:"reason,omitempty"`
	Signature []byte          `json:"signature,omitempty"`
}

// SigningBytes implements identity.Signer.
func (v *Vote) SigningBytes() ([]byte, error) {
	tmp := *v
	tmp.Signature = nil
	return json.Marshal(tmp)
}

func (v *Vote) Sign(priv ed25519.PrivateKey) error {
	b, err := v.SigningBytes()
	if err != nil {
		return err
	}
	v.Signature = ed25519.Sign(priv, b)
	return nil
}

func (v *Vote) VerifySignature(pub ed25519.PublicKey) (bool, error) {
	if len(v.Signature) == 0 {
		return false, fmt.Errorf("consensus: vote missing signature")
	}
	b, err := v.SigningBytes()
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, b, v.Signature), nil
}

// Certificate is a proposal plus the quorum of votes that finalized or
// skipped it.
type Certificate struct {
	Proposal *Action `json:"proposal"`
	Votes    []Vote  `json:"votes"`
	Reason   string  `json:"reason,omitempty"`
}

// SlotOutcome is the terminal state a slot reaches.
type SlotOutcome int

const (
	SlotPending SlotOutcome = iota
	SlotFinalized
	SlotSkipped
)

// EquivocationEvidence records that one validator cast two distinct
// votes for the same (game, slot) — a Byzantine behavior the
// teacher's single-outstanding-proposal protocol never needed to
// detect, because it only ever had one vote per voter in flight.
type EquivocationEvidence struct {
	Game  protocol.GameID
	Slot  uint64
	Voter protocol.PeerID
	VoteA Vote
	VoteB Vote
}
