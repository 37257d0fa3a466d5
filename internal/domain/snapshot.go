package domain

// SnapshotPlayer is the per-seat view included in a snapshot. Hands and stacks
// are sized for everyone and spelled out only where the viewer is entitled to
// see them.
type SnapshotPlayer struct {
	UserID     string `json:"user_id"`
	Seat       int    `json:"seat"`
	Team       int    `json:"team"` // -1 outside the teams mode
	HandCount  int    `json:"hand_count"`
	Hand       []Card `json:"hand,omitempty"` // own hand; teammate's during the reveal phase
	StackCount int    `json:"stack_count"`
	Stack      []Card `json:"stack,omitempty"` // own stack only
}

// Snapshot is the serializable view of a game broadcast to one viewer. It is
// plain data with no behavior so the sync layer can ship it whole.
type Snapshot struct {
	GameID       string           `json:"game_id"`
	Mode         Mode             `json:"mode"`
	Phase        Phase            `json:"phase"`
	DeckCount    int              `json:"deck_count"`
	Trump        *Card            `json:"trump,omitempty"`
	TrumpSuit    Suit             `json:"trump_suit"`
	PlayArea     []PlayedCard     `json:"play_area"`
	CurrentTurn  int              `json:"current_turn"`
	Round        int              `json:"round"`
	RoundWinner  int              `json:"round_winner"`
	LastSwapSeat int              `json:"last_swap_seat"`
	TurnOrder    []int            `json:"turn_order,omitempty"` // teams mode only
	Teams        map[int]int      `json:"teams,omitempty"`      // teams mode only
	Players      []SnapshotPlayer `json:"players"`
	History      []RoundRecord    `json:"history,omitempty"`
	Result       *Result          `json:"result,omitempty"`
}

// SnapshotFor renders the game as seen from viewerSeat. A negative seat yields
// the public spectator view with every hand hidden.
func (g *Game) SnapshotFor(viewerSeat int) Snapshot {
	snap := Snapshot{
		GameID:       g.ID,
		Mode:         g.Mode,
		Phase:        g.Phase,
		DeckCount:    len(g.Deck),
		Trump:        g.Trump,
		TrumpSuit:    g.TrumpSuit,
		PlayArea:     append([]PlayedCard(nil), g.PlayArea...),
		CurrentTurn:  g.CurrentTurn,
		Round:        g.Round,
		RoundWinner:  g.RoundWinner,
		LastSwapSeat: g.LastSwapSeat,
		History:      append([]RoundRecord(nil), g.History...),
		Result:       g.Result,
	}
	if g.Teams != nil {
		snap.TurnOrder = append([]int(nil), g.Teams.TurnOrder...)
		snap.Teams = make(map[int]int, len(g.Teams.Assignment))
		for seat, team := range g.Teams.Assignment {
			snap.Teams[seat] = team
		}
	}

	snap.Players = make([]SnapshotPlayer, 0, len(g.Players))
	for _, p := range g.Players {
		sp := SnapshotPlayer{
			UserID:     p.UserID,
			Seat:       p.Seat,
			Team:       -1,
			HandCount:  len(p.Hand),
			StackCount: len(p.Stack),
		}
		if g.Teams != nil {
			sp.Team = g.Teams.Assignment[p.Seat]
		}
		if g.revealsHandTo(p.Seat, viewerSeat) {
			sp.Hand = append([]Card(nil), p.Hand...)
		}
		if p.Seat == viewerSeat {
			sp.Stack = append([]Card(nil), p.Stack...)
		}
		snap.Players = append(snap.Players, sp)
	}
	return snap
}

// revealsHandTo reports whether the hand at seat is visible to the viewer:
// always their own, plus the teammate's during the teams reveal phase.
func (g *Game) revealsHandTo(seat, viewerSeat int) bool {
	if viewerSeat < 0 {
		return false
	}
	if seat == viewerSeat {
		return true
	}
	if g.Phase == PhaseRevealing && g.Teams != nil {
		return g.Teams.Assignment[seat] == g.Teams.Assignment[viewerSeat]
	}
	return false
}
