package craps

import (
	"testing"

	"github.com/bitcraps/bitcraps/protocol"
)

func TestTableJoinStartLifecycle(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p1, p2 := mkPlayer(1), mkPlayer(2)

	if err := table.Join(p1); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := table.Join(p2); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := table.Join(p1); err == nil {
		t.Fatalf("expected error joining twice")
	}

	if err := table.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if table.Phase.Kind != protocol.PhaseComeOut {
		t.Fatalf("expected ComeOut phase after start")
	}
	if err := table.Join(mkPlayer(3)); err == nil {
		t.Fatalf("expected join to fail once the table has started")
	}
}

func TestTablePlaceBetRejectsOutOfRangeAmount(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p := mkPlayer(1)
	_ = table.Join(p)
	_ = table.Start()

	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: protocol.BetPass, Amount: 0}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: protocol.BetPass, Amount: 1000}); err == nil {
		t.Fatalf("expected error for amount above MaxBetAmount")
	}
}

func TestTablePlaceBetRejectsIndivisiblePlace(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p := mkPlayer(1)
	_ = table.Join(p)
	_ = table.Start()

	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: Place(5), Amount: 3}); err != ErrIndivisibleAmount {
		t.Fatalf("expected ErrIndivisibleAmount, got %v", err)
	}
	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: Place(5), Amount: 5}); err != nil {
		t.Fatalf("expected Place(5) of 5 to be accepted: %v", err)
	}
}

func TestTableApplyRollEstablishesAndClearsPoint(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p := mkPlayer(1)
	_ = table.Join(p)
	_ = table.Start()
	_ = table.PlaceBet(protocol.Bet{Player: p, Kind: protocol.BetPass, Amount: 10})

	if _, err := table.ApplyRoll(protocol.DiceRoll{Die1: 2, Die2: 4}); err != nil { // 6
		t.Fatalf("ApplyRoll: %v", err)
	}
	if table.Phase.Kind != protocol.PhasePoint || table.Phase.Point != 6 {
		t.Fatalf("expected point phase at 6, got %v", table.Phase)
	}

	payouts, err := table.ApplyRoll(protocol.DiceRoll{Die1: 3, Die2: 3}) // hits point
	if err != nil {
		t.Fatalf("ApplyRoll: %v", err)
	}
	if payouts[p] != 20 {
		t.Fatalf("expected 20 payout when point hits, got %d", payouts[p])
	}
	if table.Phase.Kind != protocol.PhaseComeOut {
		t.Fatalf("expected phase to return to ComeOut after point resolves")
	}
}

func TestTableBanRemovesParticipant(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p1, p2 := mkPlayer(1), mkPlayer(2)
	_ = table.Join(p1)
	_ = table.Join(p2)
	_ = table.Start()

	table.Ban(p1)
	if table.IsParticipant(p1) {
		t.Fatalf("expected p1 to be removed from participants")
	}
	if err := table.PlaceBet(protocol.Bet{Player: p1, Kind: protocol.BetPass, Amount: 10}); err == nil {
		t.Fatalf("expected banned player's bet to be rejected")
	}
}

func TestTableBanPreservesCurrentProposerAcrossShift(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p1, p2, p3, p4 := mkPlayer(1), mkPlayer(2), mkPlayer(3), mkPlayer(4)
	_ = table.Join(p1)
	_ = table.Join(p2)
	_ = table.Join(p3)
	_ = table.Join(p4)
	_ = table.Start()

	_, _ = table.ApplyRoll(protocol.DiceRoll{Die1: 1, Die2: 1}) // 2, resolves immediately, leader -> p2
	_, _ = table.ApplyRoll(protocol.DiceRoll{Die1: 1, Die2: 1}) // leader -> p3
	if table.CurrentProposer() != p3 {
		t.Fatalf("expected p3 to be the current proposer before the ban")
	}

	table.Ban(p1) // removed from before the leader index
	if table.CurrentProposer() != p3 {
		t.Fatalf("expected p3 to remain the current proposer after banning an unrelated peer, got %v", table.CurrentProposer())
	}
}

func TestTablePlaceBetRejectsInvalidPlaceAndHardwayNumbers(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p := mkPlayer(1)
	_ = table.Join(p)
	_ = table.Start()
	_, _ = table.ApplyRoll(protocol.DiceRoll{Die1: 2, Die2: 4}) // 6: point established

	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: Place(7), Amount: 7}); err == nil {
		t.Fatalf("expected Place(7) to be rejected")
	}
	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: Hardway(2), Amount: 10}); err == nil {
		t.Fatalf("expected Hardway(2) to be rejected")
	}
}

func TestTablePlaceBetRejectsComeDuringComeOut(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p := mkPlayer(1)
	_ = table.Join(p)
	_ = table.Start()

	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: protocol.BetCome, Amount: 10}); err == nil {
		t.Fatalf("expected Come to be rejected during ComeOut")
	}
	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: protocol.BetDontCome, Amount: 10}); err == nil {
		t.Fatalf("expected DontCome to be rejected during ComeOut")
	}

	_ = table.PlaceBet(protocol.Bet{Player: p, Kind: protocol.BetPass, Amount: 10})
	if _, err := table.ApplyRoll(protocol.DiceRoll{Die1: 2, Die2: 4}); err != nil { // 6: point established
		t.Fatalf("ApplyRoll: %v", err)
	}
	if err := table.PlaceBet(protocol.Bet{Player: p, Kind: protocol.BetCome, Amount: 10}); err != nil {
		t.Fatalf("expected Come to be accepted once a point is established: %v", err)
	}
}

func TestTableCurrentProposerRotates(t *testing.T) {
	table := NewTable(protocol.NewGameID(), mkPlayer(0))
	p1, p2 := mkPlayer(1), mkPlayer(2)
	_ = table.Join(p1)
	_ = table.Join(p2)
	_ = table.Start()

	if table.CurrentProposer() != p1 {
		t.Fatalf("expected p1 to be the initial proposer")
	}
	_, _ = table.ApplyRoll(protocol.DiceRoll{Die1: 3, Die2: 4}) // natural 7, resolves immediately
	if table.CurrentProposer() != p2 {
		t.Fatalf("expected leader to rotate to p2 after a roll")
	}
}
