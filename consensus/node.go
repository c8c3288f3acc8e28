package consensus

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// computeQuorum calculates the minimum number of votes required for
// Byzantine Fault Tolerant consensus: ceiling(2n/3), computed as
// (2n+2)/3 in integer division, identical to the teacher's
// consensus.computeQuorum.
func computeQuorum(n int) int { return (2*n + 2) / 3 }

// Node participates in the BFT protocol for a single game. Unlike the
// teacher's ConsensusNode, which tracked one outstanding proposal at a
// time, Node tracks votes per slot so that round timeouts and
// equivocation can be detected independently per slot.
type Node struct {
	pub       ed25519.PublicKey
	priv      ed25519.PrivateKey
	playersPK map[protocol.PeerID]ed25519.PublicKey
	quorum    int

	sm      StateManager
	ledger  Ledger
	network NetworkLayer

	roundTimeout time.Duration

	slots map[uint64]*slotState
}

type slotState struct {
	proposal *Action
	votes    map[protocol.PeerID]Vote
	outcome  SlotOutcome
}

// NewNode creates a consensus participant for one game.
func NewNode(
	pub ed25519.PublicKey,
	priv ed25519.PrivateKey,
	peers map[protocol.PeerID]ed25519.PublicKey,
	sm StateManager,
	ledger Ledger,
	network NetworkLayer,
	roundTimeout time.Duration,
) *Node {
	peersCopy := make(map[protocol.PeerID]ed25519.PublicKey, len(peers))
	for k, v := range peers {
		peersCopy[k] = v
	}
	return &Node{
		pub:          pub,
		priv:         priv,
		playersPK:    peersCopy,
		quorum:       computeQuorum(len(peersCopy)),
		sm:           sm,
		ledger:       ledger,
		network:      network,
		roundTimeout: roundTimeout,
		slots:        map[uint64]*slotState{},
	}
}

// RemoveParticipant drops a banned or departed peer and recomputes quorum.
func (n *Node) RemoveParticipant(id protocol.PeerID) {
	delete(n.playersPK, id)
	n.quorum = computeQuorum(len(n.playersPK))
}

// UpdatePeers exchanges public keys with every peer via AllToAll,
// mirroring the teacher's ConsensusNode.UpdatePeers.
func (n *Node) UpdatePeers() error {
	b, err := json.Marshal(n.pub)
	if err != nil {
		return err
	}
	replies, err := n.network.AllToAll(b)
	if err != nil {
		return err
	}
	pk := make(map[protocol.PeerID]ed25519.PublicKey, len(replies))
	for peer, raw := range replies {
		var p ed25519.PublicKey
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("consensus: unmarshal public key from %s: %w", peer, err)
		}
		pk[peer] = p
	}
	n.playersPK = pk
	n.quorum = computeQuorum(len(pk))
	return nil
}

func (n *Node) slot(slot uint64) *slotState {
	s, ok := n.slots[slot]
	if !ok {
		s = &slotState{votes: map[protocol.PeerID]Vote{}}
		n.slots[slot] = s
	}
	return s
}

// ProposeAction broadcasts a, which must come from the slot's current
// proposer, and drives the vote round to completion. Returns an error
// if a.ProposerID isn't the current proposer or the broadcast round fails.
func (n *Node) ProposeAction(a *Action) error {
	if a.ProposerID != n.sm.CurrentProposer() {
		return fmt.Errorf("consensus: only the current proposer may propose slot %d", a.Slot)
	}
	s := n.slot(a.Slot)
	s.proposal = a

	b, err := json.Marshal(*a)
	if err != nil {
		return err
	}
	if _, err := n.network.BroadcastWithTimeout(b, n.network.Self(), n.roundTimeout); err != nil {
		return err
	}
	return n.onReceiveProposal(a)
}

// WaitForProposal blocks until a proposal for slot is broadcast by
// the slot's proposer, then processes it.
func (n *Node) WaitForProposal(slot uint64) error {
	proposer := n.sm.CurrentProposer()
	data, err := n.network.BroadcastWithTimeout(nil, proposer, n.roundTimeout)
	if err != nil {
		return fmt.Errorf("consensus: round timed out waiting for slot %d proposal: %w", slot, err)
	}
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("consensus: malformed proposal for slot %d: %w", slot, err)
	}
	return n.onReceiveProposal(&a)
}

// onReceiveProposal validates the proposer's signature and the
// payload, then broadcasts this node's vote.
func (n *Node) onReceiveProposal(a *Action) error {
	pub, known := n.playersPK[a.ProposerID]
	if !known {
		return n.broadcastVote(a, VoteReject, "unknown-proposer")
	}
	verified, err := a.VerifySignature(pub)
	if err != nil {
		return err
	}
	if !verified {
		return n.broadcastVote(a, VoteReject, "bad-signature")
	}
	if err := n.sm.Validate(a.Slot, a.Payload); err != nil {
		return n.broadcastVote(a, VoteReject, err.Error())
	}
	return n.broadcastVote(a, VoteAccept, "valid")
}

func (n *Node) broadcastVote(a *Action, value VoteValue, reason string) error {
	vote := Vote{ActionID: a.ID, Slot: a.Slot, VoterID: n.network.Self(), Value: value, Reason: reason}
	if err := vote.Sign(n.priv); err != nil {
		return err
	}

	s := n.slot(a.Slot)
	if s.proposal == nil {
		s.proposal = a
	}
	s.votes[n.network.Self()] = vote

	b, err := json.Marshal(vote)
	if err != nil {
		return err
	}
	replies, err := n.network.AllToAllWithTimeout(b, n.roundTimeout)
	if err != nil {
		return err
	}

	votes := make([]Vote, 0, len(replies))
	for _, raw := range replies {
		var v Vote
		if err := json.Unmarshal(raw, &v); err != nil {
			continue // malformed vote: treat as absent, not fatal
		}
		votes = append(votes, v)
	}
	return n.onReceiveVotes(a.Slot, votes)
}

// onReceiveVotes validates and records a batch of votes for slot, then
// checks whether quorum has been reached.
func (n *Node) onReceiveVotes(slot uint64, votes []Vote) error {
	s := n.slot(slot)
	var equivocations []EquivocationEvidence

	for _, v := range votes {
		if v.Slot != slot {
			continue
		}
		pub, present := n.playersPK[v.VoterID]
		if !present {
			continue
		}
		ok, err := v.VerifySignature(pub)
		if err != nil || !ok {
			continue
		}
		if !n.sm.IsParticipant(v.VoterID) {
			continue
		}
		if existing, have := s.votes[v.VoterID]; have && existing.ActionID != v.ActionID {
			equivocations = append(equivocations, EquivocationEvidence{
				Slot: slot, Voter: v.VoterID, VoteA: existing, VoteB: v,
			})
			continue // do not let an equivocating vote overwrite the first recorded one
		}
		s.votes[v.VoterID] = v
	}

	if len(equivocations) > 0 {
		return &EquivocationError{Evidence: equivocations}
	}

	return n.checkAndCommit(slot)
}

// EquivocationError is returned when onReceiveVotes detects a voter
// casting two distinct votes for the same slot. The caller (typically
// anticheat) decides how to act on the evidence; the slot itself stays
// pending until a later round of votes reaches quorum.
type EquivocationError struct {
	Evidence []EquivocationEvidence
}

func (e *EquivocationError) Error() string {
	return fmt.Sprintf("consensus: %d equivocation(s) detected", len(e.Evidence))
}

// checkAndCommit finalizes or skips a slot once either quorum of
// accepts or quorum of rejects has been reached, generalizing the
// teacher's checkAndCommit banning branch into an explicit
// SlotSkipped outcome instead of an immediate network shutdown.
func (n *Node) checkAndCommit(slot uint64) error {
	s := n.slots[slot]
	if s == nil || s.proposal == nil {
		return fmt.Errorf("consensus: no proposal cached for slot %d", slot)
	}
	if s.outcome != SlotPending {
		return nil // already resolved, re-delivered votes are a no-op
	}

	var accepts, rejects []Vote
	for _, v := range s.votes {
		switch v.Value {
		case VoteAccept:
			accepts = append(accepts, v)
		case VoteReject:
			rejects = append(rejects, v)
		}
	}

	switch {
	case len(accepts) >= n.quorum:
		s.outcome = SlotFinalized
		if err := n.sm.Apply(slot, s.proposal.Payload); err != nil {
			return err
		}
		return n.ledger.Append(Certificate{Proposal: s.proposal, Votes: append(accepts, rejects...)}, SlotFinalized)
	case len(rejects) >= n.quorum:
		s.outcome = SlotSkipped
		reason := rejectReason(rejects)
		return n.ledger.Append(Certificate{Proposal: s.proposal, Votes: append(accepts, rejects...), Reason: reason}, SlotSkipped)
	default:
		return fmt.Errorf("consensus: slot %d not yet at quorum (%d accept, %d reject, need %d)",
			slot, len(accepts), len(rejects), n.quorum)
	}
}

func rejectReason(rejects []Vote) string {
	seen := map[string]bool{}
	reason := ""
	for _, v := range rejects {
		if v.Reason == "" || seen[v.Reason] {
			continue
		}
		seen[v.Reason] = true
		if reason != "" {
			reason += "; "
		}
		reason += v.Reason
	}
	return reason
}

// Outcome reports the terminal state of a slot, or SlotPending if it
// hasn't been decided yet.
func (n *Node) Outcome(slot uint64) SlotOutcome {
	s, ok := n.slots[slot]
	if !ok {
		return SlotPending
	}
	return s.outcome
}

// Quorum returns the current BFT quorum threshold.
func (n *Node) Quorum() int { return n.quorum }
