package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"

	"github.com/bitcraps/bitcraps/protocol"
)

// TCPTransport implements Transport over plain HTTP, one peer-to-peer
// round per logical Broadcast/AllToAll call. Adapted from
// network.Peer's rank-indexed barrier broadcast: addresses are keyed
// by protocol.PeerID instead of an integer rank, and a logical clock
// per round still rejects stray requests from an earlier round.
//
// This exists for a LAN bring-up path between bitcrapsd instances
// during development; the production transport is BLE mesh, which sits
// outside this module's scope (see the package documentation).
type TCPTransport struct {
	self      protocol.PeerID
	addresses map[protocol.PeerID]string // includes self

	clock   uint64
	server  *http.Server
	handler *broadcastHandler
	timeout time.Duration
}

// NewTCPTransport starts an HTTP listener on l and returns a transport
// bound to self, addressed by addresses (which must include self's own
// listen address). The server runs in a background goroutine until
// Close.
func NewTCPTransport(self protocol.PeerID, addresses map[protocol.PeerID]string, l net.Listener, timeout time.Duration) (*TCPTransport, error) {
	if _, ok := addresses[self]; !ok {
		return nil, fmt.Errorf("transport: addresses missing self %s", self)
	}
	handler := &broadcastHandler{
		contentChannel: make(chan []byte),
		errChannel:     make(chan error),
	}
	cp := make(map[protocol.PeerID]string, len(addresses))
	for k, v := range addresses {
		cp[k] = v
	}
	t := &TCPTransport{
		self:      self,
		addresses: cp,
		server:    &http.Server{Handler: handler},
		handler:   handler,
		timeout:   timeout,
	}
	go func() {
		if err := t.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pterm.Error.Printfln("transport: listener for %s stopped: %v", self, err)
		}
	}()
	return t, nil
}

var _ Transport = (*TCPTransport)(nil)

func (t *TCPTransport) Self() protocol.PeerID { return t.self }

func (t *TCPTransport) Peers() []protocol.PeerID {
	out := make([]protocol.PeerID, 0, len(t.addresses))
	for id := range t.addresses {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (t *TCPTransport) Close() error {
	return t.server.Close()
}

// Broadcast implements Transport: root sends data to every peer and
// every peer (including root) returns what root sent.
func (t *TCPTransport) Broadcast(data []byte, root protocol.PeerID) ([]byte, error) {
	return t.broadcastNoBarrier(data, root, 0)
}

func (t *TCPTransport) BroadcastWithTimeout(data []byte, root protocol.PeerID, timeout time.Duration) ([]byte, error) {
	return t.broadcastNoBarrier(data, root, timeout)
}

// AllToAll implements Transport: every peer broadcasts to every other
// peer in turn, ordered by peer id so every participant visits the
// same sequence of roots.
func (t *TCPTransport) AllToAll(data []byte) (map[protocol.PeerID][]byte, error) {
	return t.allToAll(data, 0)
}

func (t *TCPTransport) AllToAllWithTimeout(data []byte, timeout time.Duration) (map[protocol.PeerID][]byte, error) {
	return t.allToAll(data, timeout)
}

func (t *TCPTransport) allToAll(data []byte, timeout time.Duration) (map[protocol.PeerID][]byte, error) {
	out := make(map[protocol.PeerID][]byte, len(t.addresses))
	for _, root := range t.Peers() {
		recv, err := t.broadcastNoBarrier(data, root, timeout)
		if err != nil {
			return nil, err
		}
		out[root] = recv
	}
	return out, nil
}

// broadcastNoBarrier is network.Peer.broadcastNoBarrier generalized
// from an integer rank to a PeerID.
func (t *TCPTransport) broadcastNoBarrier(bufferSend []byte, root protocol.PeerID, timeout time.Duration) ([]byte, error) {
	t.clock++
	if root == t.self {
		client := http.Client{Timeout: timeout}
		for id, addr := range t.addresses {
			if id == t.self {
				continue
			}
			if err := t.post(&client, addr, bufferSend, timeout); err != nil {
				return nil, err
			}
		}
		return bufferSend, nil
	}

	t.handler.clock = t.clock
	t.handler.active.Store(true)
	defer t.handler.active.Store(false)

	var recv []byte
	timeoutTicker := make(<-chan time.Time)
	if timeout > 0 {
		timeoutTicker = time.After(timeout)
	}
	select {
	case recv = <-t.handler.contentChannel:
	case err := <-t.handler.errChannel:
		return nil, err
	case <-timeoutTicker:
		return nil, fmt.Errorf("transport: timed out waiting for broadcast from %s", root)
	}
	return recv, nil
}

func (t *TCPTransport) post(client *http.Client, addr string, body []byte, timeout time.Duration) error {
	start := time.Now()
	for {
		req, err := http.NewRequest(http.MethodPost, "http://"+addr, strings.NewReader(string(body)))
		if err != nil {
			return err
		}
		req.Header.Set("X-Clock", fmt.Sprint(t.clock))

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode == http.StatusAccepted {
			return resp.Body.Close()
		}
		if resp != nil {
			resp.Body.Close()
		}
		if timeout > 0 && time.Since(start) > timeout {
			if err != nil {
				return fmt.Errorf("transport: connection to %s timed out: %w", addr, err)
			}
			return fmt.Errorf("transport: connection to %s timed out with status %d", addr, resp.StatusCode)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

type broadcastHandler struct {
	active         atomic.Bool
	clock          uint64
	contentChannel chan []byte
	errChannel     chan error
}

func (h *broadcastHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !h.active.Load() {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	senderClock := req.Header.Get("X-Clock")
	if senderClock == "" || senderClock != fmt.Sprint(h.clock) {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	content, err := io.ReadAll(req.Body)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		h.errChannel <- fmt.Errorf("transport: reading broadcast body: %w", err)
		return
	}
	h.contentChannel <- content
	rw.WriteHeader(http.StatusAccepted)
}
