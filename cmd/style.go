package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/bitcraps/bitcraps/protocol"
)

// tablePanel renders a table's current phase, point, and bet book,
// the craps analog of the teacher's getActionPanel/printState board
// display built from pterm panels.
func tablePanel(state protocol.GameState) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	body := pterm.Sprintfln("Round %d  Phase: %s  Players: %d", state.Round, state.Phase, len(state.Players))
	for _, b := range state.Bets {
		body += pterm.Sprintfln("  %s bets %d on %s", shortID(b.Player), b.Amount, b.Kind)
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|TABLE|")).WithTitleTopCenter().Sprintf(body)}
}

// rollPanel renders the most recently resolved roll and the payouts
// it produced, the craps analog of getWinnerPanel's showdown summary.
func rollPanel(roll protocol.DiceRoll, payouts map[protocol.PeerID]protocol.CrapTokens) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	body := pterm.Sprintfln("Rolled %d-%d (total %d)", roll.Die1, roll.Die2, roll.Total())
	if len(payouts) == 0 {
		body += pterm.Sprintfln("No payouts this roll")
	}
	for player, amount := range payouts {
		body += pterm.Sprintfln("%s paid out %d", pterm.LightCyan(shortID(player)), amount)
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|ROLL|")).WithTitleTopCenter().Sprintf(body)}
}

// printBanner shows the startup banner for one running node.
func printBanner(self protocol.PeerID, game protocol.GameID) {
	pterm.DefaultHeader.WithFullWidth().Println("BitCraps")
	pterm.Info.Printfln("node %s joining table %s", shortID(self), game)
}

// printState renders the table and, if a roll has resolved, the
// payouts panel alongside it, matching printState's multi-panel
// dashboard layout.
func printState(state protocol.GameState, last *protocol.GameResult) {
	panels := [][]pterm.Panel{{tablePanel(state)}}
	if last != nil {
		panels = append(panels, []pterm.Panel{rollPanel(last.Roll, last.Payouts)})
	}
	pterm.DefaultPanel.WithPanels(panels).Render()
}

func shortID(id protocol.PeerID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func printBanned(id protocol.PeerID, reason string) {
	pterm.Warning.Printfln("player %s banned: %s", shortID(id), reason)
}

func printJoined(id protocol.PeerID) {
	fmt.Println(pterm.LightGreen(fmt.Sprintf("player %s joined", shortID(id))))
}
