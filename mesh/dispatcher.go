// Package mesh implements packet dedup, TTL-bounded gossip
// rebroadcast, and handler dispatch by packet type, generalized from
// network.Peer's broadcast plumbing and discovery.Discover's
// timer-driven retry loop.
package mesh

import (
	"container/list"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitcraps/bitcraps/identity"
	"github.com/bitcraps/bitcraps/protocol"
)

// Handler processes one inbound packet from a peer. A non-nil error
// is a transport-plane failure (see SPEC_FULL.md §7) and never halts
// dispatch of other packets.
type Handler func(from protocol.PeerID, p *protocol.Packet) error

// Sender delivers a packet to a specific peer or broadcasts it to
// every known neighbor, the minimal surface the dispatcher needs from
// whatever sits underneath it (a transport.Transport in production).
type Sender interface {
	SendTo(peer protocol.PeerID, p *protocol.Packet) error
	Neighbors() []protocol.PeerID
}

type handlerEntry struct {
	priority int
	handler  Handler
}

// Dispatcher routes inbound packets to registered handlers, dedupes
// by (sender, type, payload hash), decrements TTL, and rebroadcasts
// to neighbors when TTL remains.
type Dispatcher struct {
	sender    Sender
	directory *identity.Directory

	mu       sync.Mutex
	handlers map[protocol.PacketType][]handlerEntry
	dedup    *lruSet
	maxTTL   uint8

	dedupHits     prometheus.Counter
	forwarded     prometheus.Counter
	dropped       prometheus.Counter
	badSignatures prometheus.Counter
}

// NewDispatcher builds a Dispatcher with a bounded dedup cache of the
// given capacity and per-entry TTL. directory resolves the signing key
// for signature verification (SPEC_FULL.md §4.2: "verify signature if
// flag set, drop on failure, count"); pass nil to skip verification,
// e.g. in tests that exchange unsigned packets.
func NewDispatcher(sender Sender, directory *identity.Directory, cacheSize int, cacheTTL time.Duration, maxTTL uint8, reg prometheus.Registerer) *Dispatcher {
	d := &Dispatcher{
		sender:    sender,
		directory: directory,
		handlers:  map[protocol.PacketType][]handlerEntry{},
		dedup:     newLRUSet(cacheSize, cacheTTL),
		maxTTL:    maxTTL,
		dedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitcraps_mesh_dedup_hits_total",
			Help: "Packets dropped because they were already seen.",
		}),
		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitcraps_mesh_forwarded_total",
			Help: "Packets rebroadcast to neighbors.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitcraps_mesh_dropped_total",
			Help: "Packets dropped for TTL expiry or handler rejection.",
		}),
		badSignatures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitcraps_mesh_bad_signatures_total",
			Help: "Packets dropped for failing signature verification.",
		}),
	}
	if reg != nil {
		reg.MustRegister(d.dedupHits, d.forwarded, d.dropped, d.badSignatures)
	}
	return d
}

// RegisterHandler attaches a handler for a packet type. Handlers for
// the same type run in descending priority order.
func (d *Dispatcher) RegisterHandler(t protocol.PacketType, priority int, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := append(d.handlers[t], handlerEntry{priority: priority, handler: h})
	sortByPriorityDesc(entries)
	d.handlers[t] = entries
}

func sortByPriorityDesc(entries []handlerEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].priority > entries[j-1].priority; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// dedupKey computes the dedup identity of a packet: sender, type, and
// a digest of its payload.
func dedupKey(from protocol.PeerID, p *protocol.Packet) [40]byte {
	var key [40]byte
	copy(key[:32], from[:])
	h := sha256.Sum256(p.Payload)
	key[32] = byte(p.Type)
	copy(key[33:], h[:7])
	return key
}

// Receive handles one inbound packet: dedup, TTL check, handler
// dispatch, then gossip rebroadcast if TTL remains.
func (d *Dispatcher) Receive(from protocol.PeerID, p *protocol.Packet) error {
	key := dedupKey(from, p)
	if d.dedup.SeenRecently(key) {
		d.dedupHits.Inc()
		return nil
	}

	if p.IsExpired() {
		d.dropped.Inc()
		return protocol.ErrPacketExpired
	}

	if p.Flags&protocol.FlagSignaturePresent != 0 && d.directory != nil {
		pub, ok := d.directory.Lookup(from)
		if !ok {
			d.badSignatures.Inc()
			return fmt.Errorf("mesh: unknown signer %s", from)
		}
		valid, err := identity.Verify(pub, p, p.Signature)
		if err != nil || !valid {
			d.badSignatures.Inc()
			return fmt.Errorf("mesh: signature verification failed for %s", from)
		}
	}

	d.mu.Lock()
	entries := append([]handlerEntry(nil), d.handlers[p.Type]...)
	d.mu.Unlock()

	for _, e := range entries {
		if err := e.handler(from, p); err != nil {
			d.dropped.Inc()
			return err
		}
	}

	if p.TTL > 1 {
		forward := *p
		forward.TTL--
		if forward.TTL > d.maxTTL {
			forward.TTL = d.maxTTL
		}
		for _, n := range d.sender.Neighbors() {
			if n == from {
				continue
			}
			if err := d.sender.SendTo(n, &forward); err == nil {
				d.forwarded.Inc()
			}
		}
	}
	return nil
}

// lruSet is a bounded, TTL-expiring set of recently seen keys,
// evicting the least-recently-inserted entry once full.
type lruSet struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	index    map[[40]byte]*list.Element
}

type lruEntry struct {
	key [40]byte
	at  time.Time
}

func newLRUSet(capacity int, ttl time.Duration) *lruSet {
	return &lruSet{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		index:    map[[40]byte]*list.Element{},
	}
}

// SeenRecently reports whether key was already inserted within ttl,
// and records it if not.
func (s *lruSet) SeenRecently(key [40]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if el, ok := s.index[key]; ok {
		entry := el.Value.(*lruEntry)
		if now.Sub(entry.at) < s.ttl {
			return true
		}
		s.order.Remove(el)
		delete(s.index, key)
	}

	s.order.PushBack(&lruEntry{key: key, at: now})
	s.index[key] = s.order.Back()

	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(*lruEntry).key)
	}
	return false
}
