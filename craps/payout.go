// Package craps implements the craps bet taxonomy, the per-table
// lifecycle state machine, and the deterministic payout engine,
// generalized from the mental-poker teacher's Session/applyAction/
// checkPokerLogic shape onto the craps rules of SPEC_FULL.md §4.7.
package craps

import (
	"fmt"

	"github.com/bitcraps/bitcraps/protocol"
)

// ErrIndivisibleAmount is returned when a Place(5)/Place(9) bet
// (7:5 payout) or Place(6)/Place(8) bet (7:6 payout) is not an amount
// that divides evenly into the payout ratio — the ruling from
// SPEC_FULL.md §9's Open Question on this exact ambiguity.
var ErrIndivisibleAmount = fmt.Errorf("craps: bet amount does not divide evenly for this payout ratio")

// Resolve computes the payout and bet-resolution outcome for every
// bet on the table given one dice roll, the same table-switch shape
// as the teacher's checkPokerLogic but over BetKind instead of ActionType.
//
// stays reports, per bet, whether it remains on the table for the
// next roll (e.g. a Place bet survives a non-resolving roll; a Pass
// bet that wins or loses does not).
func Resolve(phase protocol.GamePhase, roll protocol.DiceRoll, bets []protocol.Bet) (payouts map[protocol.PeerID]protocol.CrapTokens, stays []protocol.Bet, err error) {
	payouts = map[protocol.PeerID]protocol.CrapTokens{}
	total := roll.Total()

	for _, b := range bets {
		won, lost, keep, amt, rerr := resolveBet(phase, total, roll, b)
		if rerr != nil {
			return nil, nil, rerr
		}
		if won {
			payouts[b.Player] = payouts[b.Player].Add(amt)
		}
		if keep {
			stays = append(stays, b)
		}
		_ = lost
	}
	return payouts, stays, nil
}

// resolveBet evaluates a single bet against the roll. won indicates a
// payout is due (amt is the total returned to the player, stake
// included); keep indicates the bet remains active for the next roll.
func resolveBet(phase protocol.GamePhase, total int, roll protocol.DiceRoll, b protocol.Bet) (won, lost, keep bool, amt protocol.CrapTokens, err error) {
	switch b.Kind.Name {
	case "Pass":
		return resolvePassLine(phase, total, b, false)
	case "DontPass":
		return resolvePassLine(phase, total, b, true)
	case "Come":
		return resolveComeLine(phase, total, b, false)
	case "DontCome":
		return resolveComeLine(phase, total, b, true)
	case "Field":
		return resolveField(total, b)
	case "Any7":
		if total == 7 {
			return true, false, false, b.Amount.Add(b.Amount.Mul(4)), nil
		}
		return false, true, false, 0, nil
	case "Any11":
		if total == 11 {
			return true, false, false, b.Amount.Add(b.Amount.Mul(15)), nil
		}
		return false, true, false, 0, nil
	case "AnyCraps":
		if roll.IsCraps() {
			return true, false, false, b.Amount.Add(b.Amount.Mul(7)), nil
		}
		return false, true, false, 0, nil
	case "Hardway":
		return resolveHardway(total, roll, b)
	case "Place":
		return resolvePlace(phase, total, b)
	default:
		return false, false, false, 0, fmt.Errorf("craps: unknown bet kind %s", b.Kind)
	}
}

// resolvePassLine resolves Pass (or DontPass when inverted) against
// the come-out or point phase.
func resolvePassLine(phase protocol.GamePhase, total int, b protocol.Bet, inverted bool) (won, lost, keep bool, amt protocol.CrapTokens, err error) {
	if phase.Kind == protocol.PhaseComeOut {
		natural := total == 7 || total == 11
		craps := total == 2 || total == 3 || total == 12
		switch {
		case natural:
			return !inverted, inverted, false, payEven(b.Amount), nil
		case craps:
			if total == 12 && inverted {
				return true, false, false, b.Amount, nil // push on 12: DontPass stake returned, no profit
			}
			return inverted, !inverted, false, payEven(b.Amount), nil
		default:
			return false, false, true, 0, nil // point established, bet carries forward
		}
	}
	// PhasePoint
	point := phase.Point
	switch {
	case total == point:
		return !inverted, inverted, false, payEven(b.Amount), nil
	case total == 7:
		return inverted, !inverted, false, payEven(b.Amount), nil
	default:
		return false, false, true, 0, nil
	}
}

// resolveComeLine resolves Come/DontCome against the table's own point
// rather than an independent per-bet come-point (see DESIGN.md); callers
// must reject Come/DontCome placed during ComeOut, since that phase has
// no established point to resolve against.
func resolveComeLine(phase protocol.GamePhase, total int, b protocol.Bet, inverted bool) (won, lost, keep bool, amt protocol.CrapTokens, err error) {
	return resolvePassLine(phase, total, b, inverted)
}

// resolveField pays a single-roll bet on 2,3,4,9,10,11,12 with double
// on 2 and double on 12.
func resolveField(total int, b protocol.Bet) (won, lost, keep bool, amt protocol.CrapTokens, err error) {
	switch total {
	case 2:
		return true, false, false, b.Amount.Add(b.Amount.Mul(2)), nil
	case 12:
		return true, false, false, b.Amount.Add(b.Amount.Mul(2)), nil
	case 3, 4, 9, 10, 11:
		return true, false, false, payEven(b.Amount), nil
	default:
		return false, true, false, 0, nil
	}
}

// resolveHardway pays 7:1 for 4/10 or 9:1 for 6/8 if the number
// arrives as a matching pair before a 7 or an easy way.
func resolveHardway(total int, roll protocol.DiceRoll, b protocol.Bet) (won, lost, keep bool, amt protocol.CrapTokens, err error) {
	n := b.Kind.Number
	switch {
	case total == 7:
		return false, true, false, 0, nil
	case total == n && roll.IsHardWay():
		ratio := protocol.CrapTokens(9)
		if n == 4 || n == 10 {
			ratio = 7
		}
		return true, false, false, b.Amount.Add(b.Amount.Mul(ratio)), nil
	case total == n:
		return false, true, false, 0, nil // easy way loses a hardway bet
	default:
		return false, false, true, 0, nil
	}
}

// resolvePlace pays a standing bet on one number at its house ratio,
// rejecting (at placement time, see PlaceBet) amounts that don't
// divide evenly into the ratio.
func resolvePlace(phase protocol.GamePhase, total int, b protocol.Bet) (won, lost, keep bool, amt protocol.CrapTokens, err error) {
	if phase.Kind != protocol.PhasePoint {
		return false, false, true, 0, nil // Place bets are off during come-out
	}
	n := b.Kind.Number
	switch {
	case total == 7:
		return false, true, false, 0, nil
	case total == n:
		ratioNum, ratioDen := placeRatio(n)
		if uint64(b.Amount)%ratioDen != 0 {
			return false, false, false, 0, ErrIndivisibleAmount
		}
		winnings := protocol.CrapTokens(uint64(b.Amount) / ratioDen * ratioNum)
		return true, false, false, b.Amount.Add(winnings), nil
	default:
		return false, false, true, 0, nil
	}
}

// placeRatio returns the (numerator, denominator) payout ratio for a
// Place(n) bet: 9:5 on 4/10, 7:5 on 5/9, 7:6 on 6/8.
func placeRatio(n int) (uint64, uint64) {
	switch n {
	case 4, 10:
		return 9, 5
	case 5, 9:
		return 7, 5
	case 6, 8:
		return 7, 6
	default:
		return 1, 1
	}
}

// isPlaceNumber reports whether n is one of the point numbers a
// Place bet may name.
func isPlaceNumber(n int) bool {
	switch n {
	case 4, 5, 6, 8, 9, 10:
		return true
	default:
		return false
	}
}

// isHardwayNumber reports whether n is one of the point numbers a
// Hardway bet may name.
func isHardwayNumber(n int) bool {
	switch n {
	case 4, 6, 8, 10:
		return true
	default:
		return false
	}
}

func payEven(amt protocol.CrapTokens) protocol.CrapTokens {
	return amt.Add(amt)
}
