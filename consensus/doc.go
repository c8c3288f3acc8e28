// Package consensus implements the Byzantine Fault Tolerant protocol
// that orders every operation a craps table performs: bets, roll
// commitments and reveals, payouts, and bans.
//
// # Protocol flow
//
// Each slot goes through propose, vote, and commit:
//
//  1. The slot's current proposer (the leader for that round, per
//     StateManager.CurrentProposer) signs and broadcasts an Action.
//  2. Every participant validates the proposer's signature and the
//     payload against table rules, then broadcasts a signed ACCEPT or
//     REJECT vote to every peer.
//  3. Once a quorum of ACCEPTs or REJECTs is reached, the slot is
//     finalized or skipped and appended to the ledger.
//
// Quorum is ceiling(2n/3) of the participant set, tolerating up
// to f < n/3 Byzantine participants.
//
// Unlike a single in-flight proposal, Node tracks vote state
// per-slot so that concurrent games, and multiple rounds within one
// game, can make progress independently, and so that a participant
// who casts two different votes for the same slot can be caught as
// an EquivocationError rather than silently overwriting its first vote.
package consensus
