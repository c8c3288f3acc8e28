package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/bitcraps/bitcraps/craps"
	"github.com/bitcraps/bitcraps/protocol"
)

func mkPeer(b byte) protocol.PeerID {
	var id protocol.PeerID
	id[0] = b
	return id
}

func mustMarshal(t *testing.T, op Operation) []byte {
	t.Helper()
	b, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal operation: %v", err)
	}
	return b
}

func TestGameManagerJoinStartPlaceBetLifecycle(t *testing.T) {
	table := craps.NewTable(protocol.NewGameID(), mkPeer(0))
	mgr := NewGameManager(table)
	p1, p2 := mkPeer(1), mkPeer(2)

	joinP1 := mustMarshal(t, Operation{Kind: OpJoin, Player: p1})
	if err := mgr.Validate(1, joinP1); err != nil {
		t.Fatalf("Validate join: %v", err)
	}
	if err := mgr.Apply(1, joinP1); err != nil {
		t.Fatalf("Apply join: %v", err)
	}

	joinP2 := mustMarshal(t, Operation{Kind: OpJoin, Player: p2})
	if err := mgr.Apply(2, joinP2); err != nil {
		t.Fatalf("Apply join p2: %v", err)
	}

	start := mustMarshal(t, Operation{Kind: OpStart})
	if err := mgr.Validate(3, start); err != nil {
		t.Fatalf("Validate start: %v", err)
	}
	if err := mgr.Apply(3, start); err != nil {
		t.Fatalf("Apply start: %v", err)
	}
	if mgr.OpenRound() == nil {
		t.Fatalf("expected a commit-reveal round to open after start")
	}

	bet := protocol.Bet{Player: p1, Kind: protocol.BetPass, Amount: 10}
	placeBet := mustMarshal(t, Operation{Kind: OpPlaceBet, Bet: &bet})
	if err := mgr.Validate(4, placeBet); err != nil {
		t.Fatalf("Validate place_bet: %v", err)
	}
	if err := mgr.Apply(4, placeBet); err != nil {
		t.Fatalf("Apply place_bet: %v", err)
	}

	// join after start must be rejected
	lateJoin := mustMarshal(t, Operation{Kind: OpJoin, Player: mkPeer(3)})
	if err := mgr.Validate(5, lateJoin); err == nil {
		t.Fatalf("expected late join to be rejected")
	}
}

func TestGameManagerCommitRevealApplyRoll(t *testing.T) {
	table := craps.NewTable(protocol.NewGameID(), mkPeer(0))
	mgr := NewGameManager(table)
	p1, p2 := mkPeer(1), mkPeer(2)

	_ = mgr.Apply(1, mustMarshal(t, Operation{Kind: OpJoin, Player: p1}))
	_ = mgr.Apply(2, mustMarshal(t, Operation{Kind: OpJoin, Player: p2}))
	if err := mgr.Apply(3, mustMarshal(t, Operation{Kind: OpStart})); err != nil {
		t.Fatalf("Apply start: %v", err)
	}

	var n1, n2 [protocol.NonceSize]byte
	n1[0], n2[0] = 0xAA, 0xBB
	c1 := protocol.NewRandomnessCommitment(p1, table.ID, n1)
	c2 := protocol.NewRandomnessCommitment(p2, table.ID, n2)

	if err := mgr.Apply(4, mustMarshal(t, Operation{Kind: OpCommit, Commitment: &c1})); err != nil {
		t.Fatalf("Apply commit p1: %v", err)
	}
	if err := mgr.Apply(5, mustMarshal(t, Operation{Kind: OpCommit, Commitment: &c2})); err != nil {
		t.Fatalf("Apply commit p2: %v", err)
	}

	r1 := protocol.RandomnessReveal{Player: p1, Game: table.ID, Nonce: n1}
	r2 := protocol.RandomnessReveal{Player: p2, Game: table.ID, Nonce: n2}
	if err := mgr.Apply(6, mustMarshal(t, Operation{Kind: OpReveal, Reveal: &r1})); err != nil {
		t.Fatalf("Apply reveal p1: %v", err)
	}
	if err := mgr.Apply(7, mustMarshal(t, Operation{Kind: OpReveal, Reveal: &r2})); err != nil {
		t.Fatalf("Apply reveal p2: %v", err)
	}

	roll, err := mgr.OpenRound().Derive()
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	applyRoll := mustMarshal(t, Operation{Kind: OpApplyRoll, Roll: &roll})
	if err := mgr.Validate(8, applyRoll); err != nil {
		t.Fatalf("Validate apply_roll: %v", err)
	}
	if err := mgr.Apply(8, applyRoll); err != nil {
		t.Fatalf("Apply apply_roll: %v", err)
	}

	// a fresh round should have opened for the next roll
	if mgr.OpenRound() == nil {
		t.Fatalf("expected a new round to open after apply_roll")
	}
}

func TestGameManagerRejectsMismatchedRoll(t *testing.T) {
	table := craps.NewTable(protocol.NewGameID(), mkPeer(0))
	mgr := NewGameManager(table)
	p1 := mkPeer(1)

	_ = mgr.Apply(1, mustMarshal(t, Operation{Kind: OpJoin, Player: p1}))
	_ = mgr.Apply(2, mustMarshal(t, Operation{Kind: OpStart}))

	var nonce [protocol.NonceSize]byte
	nonce[0] = 1
	c := protocol.NewRandomnessCommitment(p1, table.ID, nonce)
	_ = mgr.Apply(3, mustMarshal(t, Operation{Kind: OpCommit, Commitment: &c}))
	reveal := protocol.RandomnessReveal{Player: p1, Game: table.ID, Nonce: nonce}
	_ = mgr.Apply(4, mustMarshal(t, Operation{Kind: OpReveal, Reveal: &reveal}))

	bogus := protocol.DiceRoll{Die1: 9, Die2: 9} // not derivable, out of range on purpose
	op := mustMarshal(t, Operation{Kind: OpApplyRoll, Roll: &bogus})
	if err := mgr.Validate(5, op); err == nil {
		t.Fatalf("expected mismatched roll to be rejected")
	}
}

func TestGameManagerAppliesRollAfterGriefedReveal(t *testing.T) {
	table := craps.NewTable(protocol.NewGameID(), mkPeer(0))
	mgr := NewGameManager(table)
	p1, p2, griefer := mkPeer(1), mkPeer(2), mkPeer(3)

	_ = mgr.Apply(1, mustMarshal(t, Operation{Kind: OpJoin, Player: p1}))
	_ = mgr.Apply(2, mustMarshal(t, Operation{Kind: OpJoin, Player: p2}))
	_ = mgr.Apply(3, mustMarshal(t, Operation{Kind: OpJoin, Player: griefer}))
	if err := mgr.Apply(4, mustMarshal(t, Operation{Kind: OpStart})); err != nil {
		t.Fatalf("Apply start: %v", err)
	}

	var n1, n2, n3 [protocol.NonceSize]byte
	n1[0], n2[0], n3[0] = 0xAA, 0xBB, 0xCC
	c1 := protocol.NewRandomnessCommitment(p1, table.ID, n1)
	c2 := protocol.NewRandomnessCommitment(p2, table.ID, n2)
	c3 := protocol.NewRandomnessCommitment(griefer, table.ID, n3)
	_ = mgr.Apply(5, mustMarshal(t, Operation{Kind: OpCommit, Commitment: &c1}))
	_ = mgr.Apply(6, mustMarshal(t, Operation{Kind: OpCommit, Commitment: &c2}))
	_ = mgr.Apply(7, mustMarshal(t, Operation{Kind: OpCommit, Commitment: &c3}))

	r1 := protocol.RandomnessReveal{Player: p1, Game: table.ID, Nonce: n1}
	r2 := protocol.RandomnessReveal{Player: p2, Game: table.ID, Nonce: n2}
	_ = mgr.Apply(8, mustMarshal(t, Operation{Kind: OpReveal, Reveal: &r1}))
	_ = mgr.Apply(9, mustMarshal(t, Operation{Kind: OpReveal, Reveal: &r2}))
	// griefer never reveals; the reveal window has timed out.

	roll, err := mgr.OpenRound().Derive()
	if err != nil {
		t.Fatalf("Derive with two of three revealers: %v", err)
	}

	applyRoll := mustMarshal(t, Operation{Kind: OpApplyRoll, Roll: &roll})
	if err := mgr.Validate(10, applyRoll); err != nil {
		t.Fatalf("Validate apply_roll after griefed reveal: %v", err)
	}
	if err := mgr.Apply(10, applyRoll); err != nil {
		t.Fatalf("Apply apply_roll after griefed reveal: %v", err)
	}

	missing := mgr.LastMissingReveals()
	if len(missing) != 1 || missing[0] != griefer {
		t.Fatalf("expected griefer reported as the missing revealer, got %v", missing)
	}
}

func TestGameManagerNotifyBanAndApply(t *testing.T) {
	table := craps.NewTable(protocol.NewGameID(), mkPeer(0))
	mgr := NewGameManager(table)
	p1, p2 := mkPeer(1), mkPeer(2)
	_ = mgr.Apply(1, mustMarshal(t, Operation{Kind: OpJoin, Player: p1}))
	_ = mgr.Apply(2, mustMarshal(t, Operation{Kind: OpJoin, Player: p2}))
	_ = mgr.Apply(3, mustMarshal(t, Operation{Kind: OpStart}))

	payload, err := mgr.NotifyBan(p1, "statistical anomaly")
	if err != nil {
		t.Fatalf("NotifyBan: %v", err)
	}
	if err := mgr.Validate(4, payload); err != nil {
		t.Fatalf("Validate ban: %v", err)
	}
	if err := mgr.Apply(4, payload); err != nil {
		t.Fatalf("Apply ban: %v", err)
	}
	if mgr.IsParticipant(p1) {
		t.Fatalf("expected p1 to no longer be a participant after ban")
	}
}
