package craps

import (
	"testing"

	"github.com/bitcraps/bitcraps/protocol"
)

func mkPlayer(b byte) protocol.PeerID {
	var id protocol.PeerID
	id[0] = b
	return id
}

func TestResolvePassLineComeOutNatural(t *testing.T) {
	p := mkPlayer(1)
	bets := []protocol.Bet{{Player: p, Kind: protocol.BetPass, Amount: 10}}
	phase := protocol.GamePhase{Kind: protocol.PhaseComeOut}
	payouts, stays, err := Resolve(phase, protocol.DiceRoll{Die1: 3, Die2: 4}, bets) // 7
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if payouts[p] != 20 {
		t.Fatalf("expected pass-line natural to pay 20 (stake+winnings), got %d", payouts[p])
	}
	if len(stays) != 0 {
		t.Fatalf("expected no bets to remain after a resolving come-out roll")
	}
}

func TestResolvePassLineComeOutCraps(t *testing.T) {
	p := mkPlayer(1)
	bets := []protocol.Bet{{Player: p, Kind: protocol.BetPass, Amount: 10}}
	phase := protocol.GamePhase{Kind: protocol.PhaseComeOut}
	payouts, _, err := Resolve(phase, protocol.DiceRoll{Die1: 1, Die2: 1}, bets) // 2
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, won := payouts[p]; won {
		t.Fatalf("expected pass-line bet to lose on craps, got payout %d", payouts[p])
	}
}

func TestResolvePassLinePointEstablishedThenWins(t *testing.T) {
	p := mkPlayer(1)
	bets := []protocol.Bet{{Player: p, Kind: protocol.BetPass, Amount: 10}}
	comeOut := protocol.GamePhase{Kind: protocol.PhaseComeOut}
	_, stays, err := Resolve(comeOut, protocol.DiceRoll{Die1: 2, Die2: 4}, bets) // 6: point established
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(stays) != 1 {
		t.Fatalf("expected pass-line bet to carry forward once point is established")
	}

	point := protocol.GamePhase{Kind: protocol.PhasePoint, Point: 6}
	payouts, stays2, err := Resolve(point, protocol.DiceRoll{Die1: 3, Die2: 3}, stays)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if payouts[p] != 20 {
		t.Fatalf("expected pass-line to pay 20 on hitting the point, got %d", payouts[p])
	}
	if len(stays2) != 0 {
		t.Fatalf("expected bet to resolve once point hits")
	}
}

func TestResolveFieldPayouts(t *testing.T) {
	p := mkPlayer(1)
	bet := protocol.Bet{Player: p, Kind: protocol.BetField, Amount: 10}
	phase := protocol.GamePhase{Kind: protocol.PhasePoint, Point: 6}

	payouts, _, err := Resolve(phase, protocol.DiceRoll{Die1: 1, Die2: 1}, []protocol.Bet{bet}) // 2
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if payouts[p] != 30 {
		t.Fatalf("expected field double-payout of 30 on a 2, got %d", payouts[p])
	}

	payouts, _, err = Resolve(phase, protocol.DiceRoll{Die1: 6, Die2: 6}, []protocol.Bet{bet}) // 12
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if payouts[p] != 30 {
		t.Fatalf("expected field double-payout of 30 on a 12, got %d", payouts[p])
	}
}

func TestResolveHardway(t *testing.T) {
	p := mkPlayer(1)
	bet := protocol.Bet{Player: p, Kind: Hardway(6), Amount: 10}
	phase := protocol.GamePhase{Kind: protocol.PhasePoint, Point: 6}

	payouts, _, err := Resolve(phase, protocol.DiceRoll{Die1: 3, Die2: 3}, []protocol.Bet{bet})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if payouts[p] != 100 {
		t.Fatalf("expected hard 6 to pay 9:1 (100 total), got %d", payouts[p])
	}

	payouts, _, err = Resolve(phase, protocol.DiceRoll{Die1: 2, Die2: 4}, []protocol.Bet{bet}) // easy 6
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, won := payouts[p]; won {
		t.Fatalf("expected easy 6 to lose a hardway bet")
	}
}

func TestResolvePlaceRejectsIndivisibleAmount(t *testing.T) {
	p := mkPlayer(1)
	bet := protocol.Bet{Player: p, Kind: Place(6), Amount: 10} // 10 not divisible by 6
	phase := protocol.GamePhase{Kind: protocol.PhasePoint, Point: 6}
	_, _, err := Resolve(phase, protocol.DiceRoll{Die1: 3, Die2: 3}, []protocol.Bet{bet})
	if err != ErrIndivisibleAmount {
		t.Fatalf("expected ErrIndivisibleAmount, got %v", err)
	}
}

func TestResolvePlaceValidAmount(t *testing.T) {
	p := mkPlayer(1)
	bet := protocol.Bet{Player: p, Kind: Place(6), Amount: 6}
	phase := protocol.GamePhase{Kind: protocol.PhasePoint, Point: 6}
	payouts, _, err := Resolve(phase, protocol.DiceRoll{Die1: 3, Die2: 3}, []protocol.Bet{bet})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if payouts[p] != 13 {
		t.Fatalf("expected Place(6) of 6 to pay 13 (7:6 ratio), got %d", payouts[p])
	}
}

func TestResolveAny7And11AndCraps(t *testing.T) {
	p := mkPlayer(1)
	phase := protocol.GamePhase{Kind: protocol.PhasePoint, Point: 6}

	payouts, _, _ := Resolve(phase, protocol.DiceRoll{Die1: 3, Die2: 4}, []protocol.Bet{{Player: p, Kind: protocol.BetAny7, Amount: 10}})
	if payouts[p] != 50 {
		t.Fatalf("expected Any7 4:1 payout of 50, got %d", payouts[p])
	}

	payouts, _, _ = Resolve(phase, protocol.DiceRoll{Die1: 5, Die2: 6}, []protocol.Bet{{Player: p, Kind: protocol.BetAny11, Amount: 10}})
	if payouts[p] != 160 {
		t.Fatalf("expected Any11 15:1 payout of 160, got %d", payouts[p])
	}

	payouts, _, _ = Resolve(phase, protocol.DiceRoll{Die1: 1, Die2: 2}, []protocol.Bet{{Player: p, Kind: protocol.BetAnyCraps, Amount: 10}})
	if payouts[p] != 80 {
		t.Fatalf("expected AnyCraps 7:1 payout of 80, got %d", payouts[p])
	}
}
