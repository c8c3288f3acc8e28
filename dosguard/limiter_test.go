package dosguard

import (
	"testing"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

func mkPeer(b byte) protocol.PeerID {
	var id protocol.PeerID
	id[0] = b
	return id
}

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := New(WithRate(10, 5))
	p := mkPeer(1)
	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		if err := l.Allow(p, 100, now); err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
	}
	if err := l.Allow(p, 100, now); err != ErrRateLimited {
		t.Fatalf("expected ErrRateLimited once burst is exhausted, got %v", err)
	}
}

func TestLimiterRefillsOverTime(t *testing.T) {
	l := New(WithRate(10, 2))
	p := mkPeer(1)
	now := time.Unix(0, 0)
	_ = l.Allow(p, 10, now)
	_ = l.Allow(p, 10, now)
	if err := l.Allow(p, 10, now); err != ErrRateLimited {
		t.Fatalf("expected rate limit, got %v", err)
	}
	later := now.Add(200 * time.Millisecond) // 10 rps * 0.2s = 2 tokens
	if err := l.Allow(p, 10, later); err != nil {
		t.Fatalf("expected refill to allow a request, got %v", err)
	}
}

func TestLimiterRejectsOversizedPacket(t *testing.T) {
	l := New(WithMaxPacketSize(100))
	p := mkPeer(1)
	if err := l.Allow(p, 200, time.Unix(0, 0)); err != ErrPacketTooLarge {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
}

func TestLimiterConnectionLimit(t *testing.T) {
	l := New(WithMaxConnectionsPerPeer(2))
	p := mkPeer(1)
	if err := l.OpenConnection(p); err != nil {
		t.Fatalf("1st connection: %v", err)
	}
	if err := l.OpenConnection(p); err != nil {
		t.Fatalf("2nd connection: %v", err)
	}
	if err := l.OpenConnection(p); err != ErrTooManyConnections {
		t.Fatalf("expected ErrTooManyConnections, got %v", err)
	}
	l.CloseConnection(p)
	if err := l.OpenConnection(p); err != nil {
		t.Fatalf("expected a slot to free up after CloseConnection, got %v", err)
	}
}

func TestLimiterPeersAreIndependent(t *testing.T) {
	l := New(WithRate(1, 1))
	p1, p2 := mkPeer(1), mkPeer(2)
	now := time.Unix(0, 0)
	if err := l.Allow(p1, 10, now); err != nil {
		t.Fatalf("p1: %v", err)
	}
	if err := l.Allow(p2, 10, now); err != nil {
		t.Fatalf("p2 should have its own independent bucket: %v", err)
	}
}
