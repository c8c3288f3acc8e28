package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

// MemoryNetwork is a shared rendezvous point for a fixed set of
// in-process peers, reducing network.Peer's barrier-synchronized HTTP
// broadcast to a mutex and condition-variable rendezvous for tests and simulation. Every
// peer obtained through For shares the same underlying rounds, so an
// AllToAll call only returns once every peer has contributed to the
// same sequence number.
type MemoryNetwork struct {
	mu     sync.Mutex
	peers  []protocol.PeerID
	seq    int
	rounds map[int]*round
}

// NewMemoryNetwork creates a network shared by the given peer ids.
func NewMemoryNetwork(peers []protocol.PeerID) *MemoryNetwork {
	cp := append([]protocol.PeerID(nil), peers...)
	return &MemoryNetwork{peers: cp, rounds: map[int]*round{}}
}

// For returns a Transport bound to one participating peer id.
func (n *MemoryNetwork) For(self protocol.PeerID) *MemoryTransport {
	return &MemoryTransport{net: n, self: self}
}

type round struct {
	mu     sync.Mutex
	cond   *sync.Cond
	values map[protocol.PeerID][]byte
}

func newRound() *round {
	r := &round{values: map[protocol.PeerID][]byte{}}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// roundAt returns the shared round object for sequence number seq,
// creating it if no peer has reached that round yet. Each transport
// advances its own cursor once per logical AllToAll call, so peers
// making the same calls in the same order meet in the same round.
func (n *MemoryNetwork) roundAt(seq int) *round {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.rounds[seq]
	if !ok {
		r = newRound()
		n.rounds[seq] = r
	}
	return r
}

// MemoryTransport implements Transport over a MemoryNetwork. Each
// transport tracks its own next-round cursor; peers must call
// AllToAll/Broadcast the same number of times and in the same logical
// order for rounds to line up, matching network.Peer's barrier model.
type MemoryTransport struct {
	net  *MemoryNetwork
	self protocol.PeerID

	mu     sync.Mutex
	cursor int
	closed bool
}

var _ Transport = (*MemoryTransport)(nil)

func (t *MemoryTransport) Self() protocol.PeerID { return t.self }

func (t *MemoryTransport) Peers() []protocol.PeerID {
	t.net.mu.Lock()
	defer t.net.mu.Unlock()
	return append([]protocol.PeerID(nil), t.net.peers...)
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *MemoryTransport) Broadcast(data []byte, root protocol.PeerID) ([]byte, error) {
	res, err := t.AllToAll(data)
	if err != nil {
		return nil, err
	}
	return res[root], nil
}

func (t *MemoryTransport) BroadcastWithTimeout(data []byte, root protocol.PeerID, timeout time.Duration) ([]byte, error) {
	res, err := t.AllToAllWithTimeout(data, timeout)
	if err != nil {
		return nil, err
	}
	return res[root], nil
}

func (t *MemoryTransport) AllToAll(data []byte) (map[protocol.PeerID][]byte, error) {
	return t.allToAll(data, 0)
}

func (t *MemoryTransport) AllToAllWithTimeout(data []byte, timeout time.Duration) (map[protocol.PeerID][]byte, error) {
	return t.allToAll(data, timeout)
}

func (t *MemoryTransport) allToAll(data []byte, timeout time.Duration) (map[protocol.PeerID][]byte, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, fmt.Errorf("transport: closed")
	}
	seq := t.cursor
	t.cursor++
	t.mu.Unlock()

	r := t.net.roundAt(seq)
	expected := len(t.Peers())

	r.mu.Lock()
	r.values[t.self] = data
	r.cond.Broadcast()

	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for len(r.values) < expected {
		if timeout > 0 && time.Now().After(deadline) {
			r.mu.Unlock()
			return nil, fmt.Errorf("transport: all-to-all timed out waiting for peers")
		}
		if timeout > 0 {
			waitUntil(r.cond, deadline)
		} else {
			r.cond.Wait()
		}
	}
	out := make(map[protocol.PeerID][]byte, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	r.mu.Unlock()
	return out, nil
}

// waitUntil wakes r.cond.Wait once the deadline passes so the timeout in
// allToAll gets re-checked even if no further Broadcast arrives.
func waitUntil(cond *sync.Cond, deadline time.Time) {
	done := make(chan struct{})
	timer := time.AfterFunc(time.Until(deadline), func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
		close(done)
	})
	defer timer.Stop()
	cond.Wait()
}
