// Package anticheat observes the finalized operation stream and the
// commit-reveal protocol for Byzantine behavior: it collects evidence
// (statistical dice bias, clock skew and replay, equivocation,
// no-reveal griefing), decays per-peer reputation over time, and
// drives a consensus-voted ban protocol.
//
// The ban-vote quorum mechanism is grounded directly on
// consensus.Node.checkAndCommit's reject-path: a Certificate-shaped
// set of votes reaching a fraction of the validator set finalizes a
// ban, the same way a quorum of REJECT votes skips a slot. The
// statistical and temporal detectors have no analog in the teacher's
// single-action poker ban path (a poker ban always follows one
// invalid action, never a pattern across many valid ones); they are
// grounded on original_source's rolling-window counters and
// severity/dedup shape instead.
package anticheat
