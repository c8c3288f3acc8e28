// Package transport defines the contracts the rest of the module uses
// to reach the network, the clock, and durable storage, plus an
// in-memory harness for tests and an HTTP-based TCPTransport for LAN
// bring-up. Real BLE drivers are external collaborators and out of scope.
package transport

import (
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// Transport abstracts peer-to-peer delivery, the same shape as
// consensus.NetworkLayer (Broadcast/AllToAll with and without timeout,
// Self/Peers/Close).
type Transport interface {
	// Broadcast sends data from the peer identified by root to every
	// peer and returns what root sent.
	Broadcast(data []byte, root protocol.PeerID) ([]byte, error)

	// BroadcastWithTimeout is Broadcast bounded by a deadline.
	BroadcastWithTimeout(data []byte, root protocol.PeerID, timeout time.Duration) ([]byte, error)

	// AllToAll exchanges data with every peer, returning one entry
	// per peer keyed by peer id.
	AllToAll(data []byte) (map[protocol.PeerID][]byte, error)

	// AllToAllWithTimeout is AllToAll bounded by a deadline.
	AllToAllWithTimeout(data []byte, timeout time.Duration) (map[protocol.PeerID][]byte, error)

	// Self returns this node's own peer id.
	Self() protocol.PeerID

	// Peers returns every peer id participating in this transport,
	// including Self().
	Peers() []protocol.PeerID

	// Close releases the transport's resources.
	Close() error
}

// Clock abstracts wall-clock time so tests can drive deterministic
// timeouts and skew checks.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Storage abstracts the durable append-only log behind the ledger
// package, the same shape as consensus.Ledger (Append/Verify).
type Storage interface {
	Append(record []byte) error
	Verify() error
	Latest() ([]byte, error)
}
