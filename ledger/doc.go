// Package ledger implements an immutable, hash-chained record of every
// finalized or skipped consensus slot.
//
// # Core Components
//
// Blockchain: an append-only log of consensus certificates with
// cryptographic hash chaining for tamper detection.
//
// Block: a single slot outcome containing the proposal, the quorum of
// votes that decided it, and the link to the previous block.
//
// # Security Properties
//
// The blockchain provides:
//   - Immutability: once recorded, blocks cannot be modified
//   - Verifiability: anyone can verify the integrity of the entire chain
//   - Auditability: complete history of every proposal and vote
//   - Tamper detection: any modification breaks the hash chain
//
// # Usage
//
// Create a blockchain, then Append a Certificate as each consensus
// slot finalizes or is skipped. Verify can be called at any time to
// confirm the chain remains intact.
package ledger
