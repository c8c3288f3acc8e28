package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/bitcraps/bitcraps/protocol"
)

func peerID(b byte) protocol.PeerID {
	var id protocol.PeerID
	id[0] = b
	return id
}

func TestMemoryTransportAllToAll(t *testing.T) {
	peers := []protocol.PeerID{peerID(1), peerID(2), peerID(3)}
	net := NewMemoryNetwork(peers)

	var wg sync.WaitGroup
	results := make([]map[protocol.PeerID][]byte, len(peers))
	for i, p := range peers {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr := net.For(p)
			res, err := tr.AllToAll([]byte{byte(i)})
			if err != nil {
				t.Errorf("AllToAll: %v", err)
				return
			}
			results[i] = res
		}()
	}
	wg.Wait()

	for i, res := range results {
		if len(res) != len(peers) {
			t.Fatalf("peer %d: expected %d entries, got %d", i, len(peers), len(res))
		}
		for j, p := range peers {
			if res[p][0] != byte(j) {
				t.Fatalf("peer %d: expected entry for %v to be %d, got %v", i, p, j, res[p])
			}
		}
	}
}

func TestMemoryTransportBroadcast(t *testing.T) {
	peers := []protocol.PeerID{peerID(1), peerID(2)}
	net := NewMemoryNetwork(peers)

	var wg sync.WaitGroup
	var got0, got1 []byte
	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := net.For(peers[0]).Broadcast([]byte("root-data"), peers[0])
		if err != nil {
			t.Errorf("Broadcast: %v", err)
		}
		got0 = v
	}()
	go func() {
		defer wg.Done()
		v, err := net.For(peers[1]).Broadcast([]byte("ignored"), peers[0])
		if err != nil {
			t.Errorf("Broadcast: %v", err)
		}
		got1 = v
	}()
	wg.Wait()

	if string(got0) != "root-data" || string(got1) != "root-data" {
		t.Fatalf("expected both peers to see root's data, got %q and %q", got0, got1)
	}
}

func TestMemoryTransportTimeout(t *testing.T) {
	peers := []protocol.PeerID{peerID(1), peerID(2)}
	net := NewMemoryNetwork(peers)

	tr := net.For(peers[0])
	_, err := tr.AllToAllWithTimeout([]byte("x"), 50*time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error when the other peer never joins")
	}
}

func TestMemoryTransportClose(t *testing.T) {
	peers := []protocol.PeerID{peerID(1)}
	net := NewMemoryNetwork(peers)
	tr := net.For(peers[0])
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := tr.AllToAll([]byte("x")); err == nil {
		t.Fatalf("expected error after close")
	}
}
