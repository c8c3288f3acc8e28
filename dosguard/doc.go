// Package dosguard implements per-peer request-rate, payload-size,
// and connection-count limiting, sitting in front of the Mesh
// Dispatcher's dedup stage per SPEC_FULL.md §5: "DoS guard applies
// per-peer rate and bandwidth limits before dedup."
//
// The limiter shape (sliding token bucket per peer) is grounded on
// original_source security/dos_protection.rs; the functional-options
// configuration surface mirrors network.peerOption /
// discovery.option's func(T) T idiom used throughout the pack.
package dosguard
