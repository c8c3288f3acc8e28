package anticheat

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// BanVote is a validator's decision on a BanProposal. Non-voters count
// as Abstain, per SPEC_FULL.md §4.8's ban protocol.
type BanVote string

const (
	VoteBan     BanVote = "ban"
	VoteNoBan   BanVote = "no_ban"
	VoteAbstain BanVote = "abstain"
)

// BanProposal nominates suspect for exclusion, citing the evidence
// that justifies it.
type BanProposal struct {
	Suspect     protocol.PeerID
	EvidenceIDs [][32]byte
	ProposedBy  protocol.PeerID
	ProposedAt  time.Time
}

// ballot tracks votes cast on one proposal (ban, or the symmetric
// unban) for one suspect.
type ballot struct {
	votes map[protocol.PeerID]BanVote
}

// BanSystem runs the consensus-voted ban/unban protocol: a proposal
// executes once ban_votes / total_validators crosses threshold
// (default 2/3). This is distinct from a bridge's
// required_signatures (external governance over a fixed signer set);
// BanSystem.requiredVotes is computed over the game's live validator
// set, per SPEC_FULL.md §9's ruling that the two must not be unified.
type BanSystem struct {
	mu              sync.Mutex
	totalValidators int
	threshold       float64 // fraction in (0,1], e.g. 2.0/3.0
	bans            map[protocol.PeerID]*ballot
	unbans          map[protocol.PeerID]*ballot
	banned          map[protocol.PeerID]bool
}

// NewBanSystem creates a ban system over a validator set of the given
// size, with the given vote fraction threshold.
func NewBanSystem(totalValidators int, threshold float64) *BanSystem {
	return &BanSystem{
		totalValidators: totalValidators,
		threshold:       threshold,
		bans:            map[protocol.PeerID]*ballot{},
		unbans:          map[protocol.PeerID]*ballot{},
		banned:          map[protocol.PeerID]bool{},
	}
}

// SetValidatorCount updates the live validator count used to compute
// requiredVotes, e.g. after a ban changes the active set size.
func (b *BanSystem) SetValidatorCount(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalValidators = n
}

// requiredVotes is the minimum ballot count needed to execute a
// proposal: ceil(threshold * totalValidators).
func (b *BanSystem) requiredVotes() int {
	return int(math.Ceil(b.threshold * float64(b.totalValidators)))
}

// RequiredVotes exposes requiredVotes for callers outside the package
// that need to display or log the live quorum (e.g. alerting).
func (b *BanSystem) RequiredVotes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requiredVotes()
}

// VoteBan records voter's ban vote against suspect. It returns true
// once the ban has reached quorum and should be finalized as
// ExecuteBan(suspect) — the caller is responsible for emitting that
// consensus operation and for calling Execute to record it locally.
func (b *BanSystem) VoteBan(suspect, voter protocol.PeerID, vote BanVote) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal, ok := b.bans[suspect]
	if !ok {
		bal = &ballot{votes: map[protocol.PeerID]BanVote{}}
		b.bans[suspect] = bal
	}
	bal.votes[voter] = vote

	return tally(bal, VoteBan) >= b.requiredVotes()
}

// Execute finalizes suspect's ban locally: it is marked banned and
// its ban ballot is cleared (a subsequent unban needs a fresh one).
func (b *BanSystem) Execute(suspect protocol.PeerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.banned[suspect] = true
	delete(b.bans, suspect)
}

// VoteUnban is the symmetric operation for lifting a ban, requiring
// the same vote-fraction threshold.
func (b *BanSystem) VoteUnban(suspect, voter protocol.PeerID, vote BanVote) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal, ok := b.unbans[suspect]
	if !ok {
		bal = &ballot{votes: map[protocol.PeerID]BanVote{}}
		b.unbans[suspect] = bal
	}
	bal.votes[voter] = vote

	return tally(bal, VoteBan) >= b.requiredVotes()
}

// ExecuteUnban lifts suspect's ban locally.
func (b *BanSystem) ExecuteUnban(suspect protocol.PeerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.banned, suspect)
	delete(b.unbans, suspect)
}

// IsBanned reports whether suspect is currently excluded.
func (b *BanSystem) IsBanned(suspect protocol.PeerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.banned[suspect]
}

func tally(bal *ballot, want BanVote) int {
	n := 0
	for _, v := range bal.votes {
		if v == want {
			n++
		}
	}
	return n
}

// Tally reports the current ban-vote counts for suspect, for
// diagnostics and alerting.
func (b *BanSystem) Tally(suspect protocol.PeerID) (ban, noBan, abstain int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.bans[suspect]
	if !ok {
		return 0, 0, 0
	}
	for _, v := range bal.votes {
		switch v {
		case VoteBan:
			ban++
		case VoteNoBan:
			noBan++
		default:
			abstain++
		}
	}
	return ban, noBan, abstain
}

// ErrAlreadyBanned is returned by callers that attempt to act on a
// peer already excluded from the validator set.
var ErrAlreadyBanned = fmt.Errorf("anticheat: peer is already banned")
