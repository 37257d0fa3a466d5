package domain

// Phase represents the lifecycle stage of a Briscola game.
type Phase string

const (
	// PhaseRevealing is the transient pre-play stage of the teams mode where
	// each player sees their teammate's hand.
	PhaseRevealing Phase = "revealing"
	// PhasePlaying is the active stage where cards are played in turn.
	PhasePlaying Phase = "playing"
	// PhaseRoundComplete means every seat has played and the trick winner is
	// recorded, pending resolution.
	PhaseRoundComplete Phase = "round_complete"
	// PhaseEnded is the stage after the final trick resolves.
	PhaseEnded Phase = "ended"
)

// Player holds the per-seat state of one participant.
type Player struct {
	UserID string `json:"user_id"`
	Seat   int    `json:"seat"`
	Hand   []Card `json:"hand"`
	Stack  []Card `json:"stack"`
}

// PlayedCard attributes a card in the play area to the seat that played it.
type PlayedCard struct {
	Card Card `json:"card"`
	Seat int  `json:"seat"`
}

// RoundRecord is one entry of the round-by-round log kept for post-game review.
type RoundRecord struct {
	Round      int          `json:"round"`
	Plays      []PlayedCard `json:"plays"`
	WinnerSeat int          `json:"winner_seat"`
}

// TeamPlay carries the state that exists only in the 2v2 mode.
type TeamPlay struct {
	// Assignment maps seat to team (0 or 1), two seats per team.
	Assignment map[int]int `json:"assignment"`
	// TurnOrder is the play order of the current round. It always alternates
	// teams and is rebuilt from the round winner outward after every trick.
	TurnOrder []int `json:"turn_order"`
}

// Result is the final outcome of a finished game. Equal top scores are
// reported as a tie, never broken arbitrarily.
type Result struct {
	// Scores holds the card-point total per seat.
	Scores []int `json:"scores"`
	// TopSeats lists every seat sharing the highest score (duel and
	// free-for-all modes; empty in the teams mode).
	TopSeats []int `json:"top_seats,omitempty"`
	Tie      bool  `json:"tie"`
	// TeamScores and WinningTeam are set only in the teams mode.
	// WinningTeam is -1 on a tie or outside the teams mode.
	TeamScores  []int `json:"team_scores,omitempty"`
	WinningTeam int   `json:"winning_team"`
}

// Game is the authoritative state of one Briscola game. The host owns the
// single mutable copy; everyone else sees it through SnapshotFor.
type Game struct {
	ID    string `json:"id"`
	Mode  Mode   `json:"mode"`
	Phase Phase  `json:"phase"`

	Players []*Player `json:"players"` // seat order
	Deck    []Card    `json:"deck"`    // top of the deck is the end of the slice
	Trump   *Card     `json:"trump"`   // face-up trump card; nil once drawn as the final card
	// TrumpSuit is fixed at deal time and never changes, even when the
	// face-up trump card is exchanged by a swap.
	TrumpSuit Suit `json:"trump_suit"`

	PlayArea    []PlayedCard `json:"play_area"`
	CurrentTurn int          `json:"current_turn"` // seat due to act
	Round       int          `json:"round"`        // 1-based
	// RoundWinner is the seat that won the most recently completed trick,
	// or -1 before the first trick completes.
	RoundWinner  int `json:"round_winner"`
	LastSwapSeat int `json:"last_swap_seat"` // -1 until someone swaps
	Starter      int `json:"starter"`        // seat that led round 1

	// Discarded counts the cards removed unseen by the free-for-all deck
	// balancing rule. Zero in every other mode.
	Discarded int `json:"discarded"`

	History []RoundRecord `json:"history"`

	// Teams is set only in ModeTeams.
	Teams *TeamPlay `json:"teams,omitempty"`
	// Result is set once Phase reaches PhaseEnded.
	Result *Result `json:"result,omitempty"`
}

// PlayerCount returns the number of seats in the game.
func (g *Game) PlayerCount() int {
	return len(g.Players)
}

// PlayerBySeat returns the player at the given seat, or nil.
func (g *Game) PlayerBySeat(seat int) *Player {
	if seat < 0 || seat >= len(g.Players) {
		return nil
	}
	return g.Players[seat]
}

// SeatOf returns the seat of the given user, or -1.
func (g *Game) SeatOf(userID string) int {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p.Seat
		}
	}
	return -1
}

// CardsAccounted totals every card the game still tracks: hands, stacks, play
// area, deck and the face-up trump. Adding Discarded must always yield the
// full deck size; tests assert this conservation invariant.
func (g *Game) CardsAccounted() int {
	n := len(g.Deck) + len(g.PlayArea)
	if g.Trump != nil {
		n++
	}
	for _, p := range g.Players {
		n += len(p.Hand) + len(p.Stack)
	}
	return n
}

// handIndex finds the position of a card id in a hand, or -1.
func handIndex(hand []Card, cardID string) int {
	for i, c := range hand {
		if c.ID() == cardID {
			return i
		}
	}
	return -1
}
