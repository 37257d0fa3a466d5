package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Gameplay rejections. Every one of these leaves the game untouched; the host
// reports them to the offending player and broadcasts nothing.
var (
	ErrUnknownMode    = errors.New("unknown game mode")
	ErrPlayerCount    = errors.New("player count does not fit the mode")
	ErrWrongPhase     = errors.New("operation not allowed in current phase")
	ErrNotYourTurn    = errors.New("not this player's turn")
	ErrUnknownSeat    = errors.New("no player at that seat")
	ErrCardNotHeld    = errors.New("card not in player's hand")
	ErrNoRoundWinner  = errors.New("no round winner recorded")
	ErrSwapNotAllowed = errors.New("trump swap not allowed")
)

// NewGame deals a fresh game of the given mode. playerIDs are in seat order;
// starter is the seat leading round 1. teams maps seat to team for ModeTeams
// (nil picks the default alternating assignment) and must be nil otherwise.
func NewGame(id string, mode Mode, playerIDs []string, starter int, rng *rand.Rand, teams map[int]int) (*Game, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	n := len(playerIDs)
	if !mode.PlayersAllowed(n) {
		return nil, fmt.Errorf("%w: %s with %d players", ErrPlayerCount, mode, n)
	}
	if starter < 0 || starter >= n {
		starter = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	deck := ShuffleDeck(rng, NewDeck())
	hands, deck, err := DealHands(deck, n, HandSize)
	if err != nil {
		return nil, err
	}
	trump, deck := drawTop(deck)

	g := &Game{
		ID:           id,
		Mode:         mode,
		Phase:        PhasePlaying,
		Deck:         deck,
		Trump:        &trump,
		TrumpSuit:    trump.Suit,
		CurrentTurn:  starter,
		Round:        1,
		RoundWinner:  -1,
		LastSwapSeat: -1,
		Starter:      starter,
	}
	g.Players = make([]*Player, n)
	for seat, userID := range playerIDs {
		g.Players[seat] = &Player{UserID: userID, Seat: seat, Hand: hands[seat]}
	}

	switch mode {
	case ModeFreeForAll:
		g.Deck, g.Discarded = TruncateForBalance(g.Deck, n)
	case ModeTeams:
		assignment := teams
		if assignment == nil {
			assignment = defaultTeamAssignment(n)
		} else if err := validateTeamAssignment(assignment, n); err != nil {
			return nil, err
		}
		g.Teams = &TeamPlay{
			Assignment: assignment,
			TurnOrder:  buildTeamTurnOrder(assignment, starter),
		}
		g.Phase = PhaseRevealing
	}

	return g, nil
}

// BeginPlay ends the teammate reveal phase and opens normal play. Only the
// teams mode ever passes through the revealing phase.
func (g *Game) BeginPlay() error {
	if g.Phase != PhaseRevealing {
		return ErrWrongPhase
	}
	g.Phase = PhasePlaying
	return nil
}

// PlayCard moves the identified card from the seat's hand into the play area.
// When the last seat of the round plays, the trick winner is computed and the
// game enters PhaseRoundComplete; otherwise the turn advances. Any rejection
// leaves the game unchanged.
func (g *Game) PlayCard(seat int, cardID string) error {
	if g.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if seat != g.CurrentTurn {
		return ErrNotYourTurn
	}
	p := g.PlayerBySeat(seat)
	if p == nil {
		return ErrUnknownSeat
	}
	idx := handIndex(p.Hand, cardID)
	if idx < 0 {
		return ErrCardNotHeld
	}

	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	g.PlayArea = append(g.PlayArea, PlayedCard{Card: card, Seat: seat})

	if len(g.PlayArea) == g.PlayerCount() {
		g.Phase = PhaseRoundComplete
		g.RoundWinner = EvaluateTrick(g.PlayArea, g.TrumpSuit)
		return nil
	}
	g.CurrentTurn = g.nextTurnSeat()
	return nil
}

// ResolveRound awards the completed trick to its winner, logs it, refills
// hands winner-first and either finishes the game or opens the next round
// with the winner leading.
func (g *Game) ResolveRound() error {
	if g.Phase != PhaseRoundComplete {
		return ErrWrongPhase
	}
	winner := g.RoundWinner
	if winner < 0 {
		return ErrNoRoundWinner
	}

	g.History = append(g.History, RoundRecord{
		Round:      g.Round,
		Plays:      append([]PlayedCard(nil), g.PlayArea...),
		WinnerSeat: winner,
	})

	wp := g.PlayerBySeat(winner)
	for _, pc := range g.PlayArea {
		wp.Stack = append(wp.Stack, pc.Card)
	}
	g.PlayArea = nil

	g.drawUp(winner)

	if g.over() {
		g.Phase = PhaseEnded
		g.Result = g.computeResult()
		return nil
	}

	g.Round++
	g.CurrentTurn = winner
	if g.Teams != nil {
		g.Teams.TurnOrder = buildTeamTurnOrder(g.Teams.Assignment, winner)
	}
	g.Phase = PhasePlaying
	return nil
}

// nextTurnSeat computes the seat after CurrentTurn: clockwise in the duel and
// free-for-all modes, next entry of the alternating order in the teams mode.
func (g *Game) nextTurnSeat() int {
	if g.Teams != nil {
		order := g.Teams.TurnOrder
		for i, seat := range order {
			if seat == g.CurrentTurn {
				return order[(i+1)%len(order)]
			}
		}
	}
	return (g.CurrentTurn + 1) % g.PlayerCount()
}

// drawUp refills every hand to capacity, winner first then clockwise. In the
// modes that keep the odd deck remainder, the drawer facing an empty deck
// takes the face-up trump card itself, after which no further swaps are
// possible.
func (g *Game) drawUp(winner int) {
	n := g.PlayerCount()
	for i := 0; i < n; i++ {
		p := g.PlayerBySeat((winner + i) % n)
		for len(p.Hand) < HandSize {
			if len(g.Deck) > 0 {
				var card Card
				card, g.Deck = drawTop(g.Deck)
				p.Hand = append(p.Hand, card)
				continue
			}
			if g.Mode.trumpAsFinalDraw() && g.Trump != nil {
				p.Hand = append(p.Hand, *g.Trump)
				g.Trump = nil
				continue
			}
			break
		}
	}
}

// over reports whether the game has finished: the deck, every hand and (where
// the final-draw rule applies) the trump slot must all be empty at once.
func (g *Game) over() bool {
	if len(g.Deck) > 0 {
		return false
	}
	if g.Mode.trumpAsFinalDraw() && g.Trump != nil {
		return false
	}
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// computeResult totals each stack and determines the winner, reporting exact
// ties instead of picking a side.
func (g *Game) computeResult() *Result {
	res := &Result{
		Scores:      make([]int, len(g.Players)),
		WinningTeam: -1,
	}
	for i, p := range g.Players {
		for _, c := range p.Stack {
			res.Scores[i] += c.Points()
		}
	}

	if g.Teams != nil {
		res.TeamScores = make([]int, 2)
		for seat, team := range g.Teams.Assignment {
			res.TeamScores[team] += res.Scores[seat]
		}
		switch {
		case res.TeamScores[0] > res.TeamScores[1]:
			res.WinningTeam = 0
		case res.TeamScores[1] > res.TeamScores[0]:
			res.WinningTeam = 1
		default:
			res.Tie = true
		}
		return res
	}

	best := -1
	for _, s := range res.Scores {
		if s > best {
			best = s
		}
	}
	for seat, s := range res.Scores {
		if s == best {
			res.TopSeats = append(res.TopSeats, seat)
		}
	}
	res.Tie = len(res.TopSeats) > 1
	return res
}
