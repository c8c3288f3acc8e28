package dosguard

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitcraps/bitcraps/protocol"
)

// Errors returned by Allow/OpenConnection, the transport-plane error
// plane of SPEC_FULL.md §7: recoverable, local, never crossing into
// the consensus log.
var (
	ErrRateLimited        = errors.New("dosguard: peer exceeded its request rate limit")
	ErrPacketTooLarge     = errors.New("dosguard: packet exceeds the configured size limit")
	ErrTooManyConnections = errors.New("dosguard: peer exceeded its connection limit")
)

// bucket is a per-peer token bucket: tokens replenish at
// requestsPerSecond and cap out at burst.
type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter enforces per-peer request-rate, size, and connection-count
// limits.
type Limiter struct {
	mu sync.Mutex

	requestsPerSecond float64
	burst             float64
	maxPacketSize     int
	maxConnections    int

	buckets     map[protocol.PeerID]*bucket
	connections map[protocol.PeerID]int

	rejectedRate  prometheus.Counter
	rejectedSize  prometheus.Counter
	rejectedConns prometheus.Counter
}

// Option configures a Limiter at construction time.
type Option func(*Limiter)

// WithRate sets the sustained requests/second and burst capacity per
// peer (defaults: 50 rps, burst 100, per SPEC_FULL.md's configuration
// surface).
func WithRate(requestsPerSecond float64, burst int) Option {
	return func(l *Limiter) {
		l.requestsPerSecond = requestsPerSecond
		l.burst = float64(burst)
	}
}

// WithMaxPacketSize bounds the size of any single packet a peer may
// submit (default protocol.MaxPacketSize).
func WithMaxPacketSize(n int) Option {
	return func(l *Limiter) { l.maxPacketSize = n }
}

// WithMaxConnectionsPerPeer bounds how many simultaneous connections
// one peer may hold open.
func WithMaxConnectionsPerPeer(n int) Option {
	return func(l *Limiter) { l.maxConnections = n }
}

// WithRegisterer registers the limiter's rejection counters with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Limiter) {
		if reg != nil {
			reg.MustRegister(l.rejectedRate, l.rejectedSize, l.rejectedConns)
		}
	}
}

// New builds a Limiter with sensible defaults, then applies opts.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		requestsPerSecond: 50,
		burst:             100,
		maxPacketSize:     protocolMaxPacketSize,
		maxConnections:    8,
		buckets:           map[protocol.PeerID]*bucket{},
		connections:       map[protocol.PeerID]int{},
		rejectedRate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitcraps_dosguard_rejected_rate_total",
			Help: "Packets rejected for exceeding a peer's rate limit.",
		}),
		rejectedSize: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitcraps_dosguard_rejected_size_total",
			Help: "Packets rejected for exceeding the configured size limit.",
		}),
		rejectedConns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitcraps_dosguard_rejected_connections_total",
			Help: "Connection attempts rejected for exceeding a peer's connection limit.",
		}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// protocolMaxPacketSize is the default size limit, the same 4096 as
// protocol.MaxPacketSize.
const protocolMaxPacketSize = 4096

// Allow checks peer's request against the size and rate limits,
// consuming one token on success. It must run before the mesh
// dispatcher's dedup stage, per SPEC_FULL.md §5.
func (l *Limiter) Allow(peer protocol.PeerID, size int, now time.Time) error {
	if size > l.maxPacketSize {
		l.rejectedSize.Inc()
		return ErrPacketTooLarge
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[peer]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[peer] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.requestsPerSecond
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.last = now
	}

	if b.tokens < 1 {
		l.rejectedRate.Inc()
		return ErrRateLimited
	}
	b.tokens--
	return nil
}

// OpenConnection admits a new connection from peer, failing if it
// would exceed maxConnections.
func (l *Limiter) OpenConnection(peer protocol.PeerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.connections[peer] >= l.maxConnections {
		l.rejectedConns.Inc()
		return ErrTooManyConnections
	}
	l.connections[peer]++
	return nil
}

// CloseConnection releases one of peer's open connection slots.
func (l *Limiter) CloseConnection(peer protocol.PeerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.connections[peer] > 0 {
		l.connections[peer]--
	}
}

// Forget drops all rate and connection state for peer, e.g. after a
// ban removes it from the active set.
func (l *Limiter) Forget(peer protocol.PeerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, peer)
	delete(l.connections, peer)
}
