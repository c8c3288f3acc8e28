// Command bitcrapsd runs a local demonstration of a consensus-ordered
// craps table: N signed identities join a table, place bets, run the
// commit-reveal dice protocol, and resolve payouts through BFT
// consensus over an in-process or TCP transport. It stands in for the
// teacher's poker game loop (cmd/main.go's runGameLoop), generalized
// from a single outstanding proposal per hand to a per-slot log driven
// independently by every participant.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/pterm/pterm"

	"github.com/bitcraps/bitcraps/alerting"
	"github.com/bitcraps/bitcraps/anticheat"
	"github.com/bitcraps/bitcraps/config"
	"github.com/bitcraps/bitcraps/consensus"
	"github.com/bitcraps/bitcraps/craps"
	"github.com/bitcraps/bitcraps/dosguard"
	"github.com/bitcraps/bitcraps/identity"
	"github.com/bitcraps/bitcraps/ledger"
	"github.com/bitcraps/bitcraps/orchestrator"
	"github.com/bitcraps/bitcraps/protocol"
	"github.com/bitcraps/bitcraps/randomizer"
	"github.com/bitcraps/bitcraps/scanner"
	"github.com/bitcraps/bitcraps/transport"
)

// participant bundles one node's private view of the table: every
// field here mirrors what a real bitcrapsd process would hold for
// itself, the demo just runs *players of them in one process so a
// single binary can show consensus actually converging.
type participant struct {
	id      protocol.PeerID
	table   *craps.Table
	mgr     *orchestrator.GameManager
	node    *consensus.Node
	chain   *ledger.Blockchain
	limiter *dosguard.Limiter
}

// demo owns every participant plus the shared detectors that only make
// sense run once per table (anticheat, alerting), and the running
// consensus slot counter.
type demo struct {
	game    protocol.GameID
	keys    []identity.Keypair
	parts   []*participant
	engine  *anticheat.Engine
	alerts  *alerting.Core
	slot    uint64
}

func main() {
	players := flag.Int("players", 3, "number of local participants")
	rounds := flag.Int("rounds", 5, "number of dice rounds to play before exiting")
	useTCP := flag.Bool("tcp", false, "use real TCP loopback sockets instead of an in-process transport")
	flag.Parse()

	if *players < 2 {
		log.Fatal("bitcrapsd: need at least 2 players")
	}

	cfg := config.New()
	keys := make([]identity.Keypair, *players)
	for i := range keys {
		kp, err := identity.NewKeypair()
		if err != nil {
			log.Fatalf("bitcrapsd: generate keypair %d: %v", i, err)
		}
		keys[i] = kp
	}

	peerPubKeys := make(map[protocol.PeerID]ed25519.PublicKey, len(keys))
	for _, kp := range keys {
		peerPubKeys[kp.ID] = kp.Public
	}

	game := protocol.NewGameID()
	printBanner(keys[0].ID, game)

	scan := scanner.NewAdaptive()
	demoTick(scan)

	transports, err := buildTransports(keys, *useTCP)
	if err != nil {
		log.Fatalf("bitcrapsd: %v", err)
	}
	defer func() {
		for _, tr := range transports {
			tr.Close()
		}
	}()

	d := &demo{
		game:   game,
		keys:   keys,
		engine: anticheat.NewEngine(24*time.Hour, cfg.ReputationHalfLife, 20, 0.01, cfg.MaxFutureClockSkew, cfg.MaxPastClockSkew, cfg.MinOperationInterval, *players, cfg.BanVoteFraction),
		alerts: alerting.NewCore(cfg.AlertDedupWindow, nil),
	}

	d.parts = make([]*participant, *players)
	for i, kp := range keys {
		table := craps.NewTable(game, keys[0].ID)
		mgr := orchestrator.NewGameManager(table)
		chain := ledger.NewBlockchain()
		node := consensus.NewNode(kp.Public, kp.Private, peerPubKeys, mgr, chain, transports[i], cfg.RoundTimeout)
		d.parts[i] = &participant{
			id:      kp.ID,
			table:   table,
			mgr:     mgr,
			node:    node,
			chain:   chain,
			limiter: dosguard.New(dosguard.WithRate(float64(cfg.DoSRequestsPerSecond), cfg.DoSBurst)),
		}
	}

	// The table has no elected leader until its first player joins, so
	// every join (and the table start) is proposed by the bootstrap
	// proposer every participant's table was seeded with.
	for i, kp := range keys {
		if err := d.propose(0, orchestrator.Operation{Kind: orchestrator.OpJoin, Player: kp.ID}); err != nil {
			log.Fatalf("bitcrapsd: join for player %d failed: %v", i, err)
		}
		printJoined(kp.ID)
	}
	if err := d.propose(0, orchestrator.Operation{Kind: orchestrator.OpStart}); err != nil {
		log.Fatalf("bitcrapsd: start failed: %v", err)
	}

	for round := 0; round < *rounds; round++ {
		d.playRound()
		last, _ := d.parts[0].mgr.LastResult()
		printState(d.parts[0].mgr.State(), &last)
	}

	if err := d.parts[0].chain.Verify(); err != nil {
		pterm.Error.Printfln("ledger verification failed: %v", err)
	} else {
		pterm.Success.Println("ledger verified across all finalized rounds")
	}
}

// leaderIndex finds which participant currently holds the table's
// rotating proposer slot, since only that participant's node is
// allowed to call consensus.Node.ProposeAction for the next operation.
func (d *demo) leaderIndex() int {
	leader := d.parts[0].table.CurrentProposer()
	for i, p := range d.parts {
		if p.id == leader {
			return i
		}
	}
	return 0
}

// propose drives one operation through a full consensus slot:
// proposerIdx broadcasts, every other participant concurrently waits
// for the broadcast and votes, and all of them block until the slot
// reaches quorum. This mirrors the lockstep barrier every
// transport.Transport implementation requires: a round only completes
// once every participant has called into it the same number of times.
func (d *demo) propose(proposerIdx int, op orchestrator.Operation) error {
	d.slot++
	slot := d.slot
	p := d.parts[proposerIdx]

	payload, err := json.Marshal(op)
	if err != nil {
		return err
	}
	if err := p.limiter.Allow(p.id, len(payload), time.Now()); err != nil {
		d.alerts.Raise(alerting.Alert{Kind: "dosguard_reject", Subject: p.id.String(), Severity: alerting.SeverityLow, Message: err.Error(), At: time.Now()})
		return err
	}

	a, err := consensus.MakeAction(d.game, slot, p.id, string(op.Kind), nil)
	if err != nil {
		return err
	}
	a.Payload = payload
	if err := a.Sign(d.keys[proposerIdx].Private); err != nil {
		return err
	}

	errCh := make(chan error, len(d.parts))
	for i, part := range d.parts {
		i, part := i, part
		go func() {
			if i == proposerIdx {
				errCh <- part.node.ProposeAction(&a)
				return
			}
			errCh <- part.node.WaitForProposal(slot)
		}()
	}
	for range d.parts {
		if err := <-errCh; err != nil {
			return fmt.Errorf("bitcrapsd: slot %d: %w", slot, err)
		}
	}
	return nil
}

// playRound drives one dice roll: every player places a pass-line bet,
// commits and reveals a dice nonce, and the table leader proposes the
// derived roll once enough reveals are in.
func (d *demo) playRound() {
	for _, kp := range d.keys {
		bet := protocol.Bet{Player: kp.ID, Kind: protocol.BetPass, Amount: 10}
		leader := d.leaderIndex()
		if err := d.propose(leader, orchestrator.Operation{Kind: orchestrator.OpPlaceBet, Bet: &bet}); err != nil {
			log.Fatalf("bitcrapsd: place_bet for %s: %v", shortID(kp.ID), err)
		}
	}

	nonces := make(map[protocol.PeerID][protocol.NonceSize]byte, len(d.keys))
	for _, kp := range d.keys {
		var n [protocol.NonceSize]byte
		if _, err := rand.Read(n[:]); err != nil {
			log.Fatalf("bitcrapsd: generate nonce: %v", err)
		}
		nonces[kp.ID] = n
		c := protocol.NewRandomnessCommitment(kp.ID, d.game, n)
		leader := d.leaderIndex()
		if err := d.propose(leader, orchestrator.Operation{Kind: orchestrator.OpCommit, Commitment: &c}); err != nil {
			log.Fatalf("bitcrapsd: commit for %s: %v", shortID(kp.ID), err)
		}
	}

	for _, kp := range d.keys {
		r := protocol.RandomnessReveal{Player: kp.ID, Game: d.game, Nonce: nonces[kp.ID]}
		leader := d.leaderIndex()
		if err := d.propose(leader, orchestrator.Operation{Kind: orchestrator.OpReveal, Reveal: &r}); err != nil {
			log.Fatalf("bitcrapsd: reveal for %s: %v", shortID(kp.ID), err)
		}
	}

	leader := d.leaderIndex()
	round := d.parts[leader].mgr.OpenRound()
	roll, err := round.Derive()
	if err != nil {
		if err == randomizer.ErrTooFewRevealers {
			pterm.Warning.Println("round aborted: fewer than two participants revealed")
			return
		}
		log.Fatalf("bitcrapsd: derive roll: %v", err)
	}
	if err := d.propose(leader, orchestrator.Operation{Kind: orchestrator.OpApplyRoll, Roll: &roll}); err != nil {
		log.Fatalf("bitcrapsd: apply_roll: %v", err)
	}

	now := time.Now()
	d.engine.ObserveRoll(d.parts[leader].id, roll, now)
	for _, missing := range d.parts[leader].mgr.LastMissingReveals() {
		d.engine.ObserveNoReveal(missing, nil, now)
	}
}

func demoTick(s *scanner.Scanner) {
	now := time.Now()
	s.SetPower(scanner.PowerSnapshot{BatteryPercent: 70, Thermal: scanner.ThermalNormal, AppActive: true})
	s.ApplyAutoStrategy()
	for i := 0; i < 3; i++ {
		s.Tick(now)
		now = now.Add(200 * time.Millisecond)
	}
	pterm.Debug.Printfln("scanner strategy: %s", s.Strategy())
}

func buildTransports(keys []identity.Keypair, useTCP bool) ([]transport.Transport, error) {
	ids := make([]protocol.PeerID, len(keys))
	for i, kp := range keys {
		ids[i] = kp.ID
	}
	if !useTCP {
		network := transport.NewMemoryNetwork(ids)
		out := make([]transport.Transport, len(ids))
		for i, id := range ids {
			out[i] = network.For(id)
		}
		return out, nil
	}

	listeners := make(map[protocol.PeerID]net.Listener, len(ids))
	addresses := make(map[protocol.PeerID]string, len(ids))
	for _, id := range ids {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("bitcrapsd: listen: %w", err)
		}
		listeners[id] = l
		addresses[id] = l.Addr().String()
	}
	out := make([]transport.Transport, len(ids))
	for i, id := range ids {
		tr, err := transport.NewTCPTransport(id, addresses, listeners[id], 10*time.Second)
		if err != nil {
			return nil, err
		}
		out[i] = tr
	}
	return out, nil
}
