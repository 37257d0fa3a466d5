package domain

import (
	"errors"
	"math/rand"
	"testing"
)

func seatIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "user-" + string(rune('a'+i))
	}
	return ids
}

func mustNewGame(t *testing.T, mode Mode, n int, seed int64) *Game {
	t.Helper()
	g, err := NewGame("game-1", mode, seatIDs(n), 0, rand.New(rand.NewSource(seed)), nil)
	if err != nil {
		t.Fatalf("NewGame(%s, %d players): %v", mode, n, err)
	}
	return g
}

func TestNewGameDeal(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		players     int
		wantDeck    int
		wantDiscard int
		wantPhase   Phase
	}{
		{name: "duel keeps odd remainder", mode: ModeDuel, players: 2, wantDeck: 33, wantDiscard: 0, wantPhase: PhasePlaying},
		{name: "three-way needs no balancing", mode: ModeFreeForAll, players: 3, wantDeck: 30, wantDiscard: 0, wantPhase: PhasePlaying},
		{name: "five-way discards four", mode: ModeFreeForAll, players: 5, wantDeck: 20, wantDiscard: 4, wantPhase: PhasePlaying},
		{name: "teams keep odd remainder and reveal", mode: ModeTeams, players: 4, wantDeck: 27, wantDiscard: 0, wantPhase: PhaseRevealing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustNewGame(t, tt.mode, tt.players, 1)
			if len(g.Deck) != tt.wantDeck {
				t.Errorf("deck = %d, want %d", len(g.Deck), tt.wantDeck)
			}
			if g.Discarded != tt.wantDiscard {
				t.Errorf("discarded = %d, want %d", g.Discarded, tt.wantDiscard)
			}
			if g.Phase != tt.wantPhase {
				t.Errorf("phase = %s, want %s", g.Phase, tt.wantPhase)
			}
			if g.Trump == nil {
				t.Fatal("trump card missing after deal")
			}
			if g.TrumpSuit != g.Trump.Suit {
				t.Errorf("trump suit %s does not match trump card %s", g.TrumpSuit, g.Trump.Suit)
			}
			for seat, p := range g.Players {
				if len(p.Hand) != HandSize {
					t.Errorf("seat %d hand = %d, want %d", seat, len(p.Hand), HandSize)
				}
			}
			if got := g.CardsAccounted() + g.Discarded; got != DeckSize {
				t.Errorf("cards accounted = %d, want %d", got, DeckSize)
			}
			if g.Round != 1 || g.CurrentTurn != 0 || g.RoundWinner != -1 {
				t.Errorf("unexpected initial turn state: round=%d turn=%d winner=%d", g.Round, g.CurrentTurn, g.RoundWinner)
			}
		})
	}
}

func TestNewGameRejectsBadSetups(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		players int
		wantErr error
	}{
		{name: "duel with three", mode: ModeDuel, players: 3, wantErr: ErrPlayerCount},
		{name: "free-for-all with two", mode: ModeFreeForAll, players: 2, wantErr: ErrPlayerCount},
		{name: "teams with three", mode: ModeTeams, players: 3, wantErr: ErrPlayerCount},
		{name: "teams with five", mode: ModeTeams, players: 5, wantErr: ErrPlayerCount},
		{name: "unknown mode", mode: Mode("tarocchi"), players: 2, wantErr: ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGame("g", tt.mode, seatIDs(tt.players), 0, rand.New(rand.NewSource(1)), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewGameRejectsBadTeamAssignment(t *testing.T) {
	tests := []struct {
		name  string
		teams map[int]int
	}{
		{name: "uneven teams", teams: map[int]int{0: 0, 1: 0, 2: 0, 3: 1}},
		{name: "unknown team", teams: map[int]int{0: 0, 1: 1, 2: 0, 3: 2}},
		{name: "missing seat", teams: map[int]int{0: 0, 1: 1, 2: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGame("g", ModeTeams, seatIDs(4), 0, rand.New(rand.NewSource(1)), tt.teams); err == nil {
				t.Fatal("expected team assignment rejection")
			}
		})
	}
}

func TestPlayCardRejections(t *testing.T) {
	g := mustNewGame(t, ModeDuel, 2, 3)
	offTurn := g.PlayerBySeat(1)
	held := offTurn.Hand[0]

	if err := g.PlayCard(1, held.ID()); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("off-turn play err = %v, want %v", err, ErrNotYourTurn)
	}
	if err := g.PlayCard(0, held.ID()); !errors.Is(err, ErrCardNotHeld) {
		t.Fatalf("unheld card err = %v, want %v", err, ErrCardNotHeld)
	}

	// Rejections must not touch the state.
	if len(g.PlayArea) != 0 || len(g.PlayerBySeat(0).Hand) != HandSize || len(offTurn.Hand) != HandSize {
		t.Fatal("rejected play mutated state")
	}
	if g.CurrentTurn != 0 || g.Phase != PhasePlaying {
		t.Fatal("rejected play advanced the game")
	}

	reveal := mustNewGame(t, ModeTeams, 4, 3)
	if err := reveal.PlayCard(0, reveal.PlayerBySeat(0).Hand[0].ID()); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("reveal-phase play err = %v, want %v", err, ErrWrongPhase)
	}
}

func TestDuelRoundFlow(t *testing.T) {
	g := mustNewGame(t, ModeDuel, 2, 4)

	if err := g.PlayCard(0, g.PlayerBySeat(0).Hand[0].ID()); err != nil {
		t.Fatalf("seat 0 play: %v", err)
	}
	if g.CurrentTurn != 1 {
		t.Fatalf("turn = %d, want 1", g.CurrentTurn)
	}
	if err := g.PlayCard(1, g.PlayerBySeat(1).Hand[0].ID()); err != nil {
		t.Fatalf("seat 1 play: %v", err)
	}

	if g.Phase != PhaseRoundComplete {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseRoundComplete)
	}
	wantWinner := EvaluateTrick(g.PlayArea, g.TrumpSuit)
	if g.RoundWinner != wantWinner {
		t.Fatalf("round winner = %d, want %d", g.RoundWinner, wantWinner)
	}

	// Playing while the trick awaits resolution is rejected.
	if err := g.PlayCard(g.CurrentTurn, g.PlayerBySeat(g.CurrentTurn).Hand[0].ID()); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("play during round_complete err = %v, want %v", err, ErrWrongPhase)
	}

	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	winner := g.PlayerBySeat(wantWinner)
	if len(winner.Stack) != 2 {
		t.Fatalf("winner stack = %d, want 2", len(winner.Stack))
	}
	if len(g.PlayArea) != 0 {
		t.Fatal("play area not cleared")
	}
	for seat := 0; seat < 2; seat++ {
		if got := len(g.PlayerBySeat(seat).Hand); got != HandSize {
			t.Fatalf("seat %d hand = %d after draw, want %d", seat, got, HandSize)
		}
	}
	if g.Round != 2 || g.CurrentTurn != wantWinner || g.Phase != PhasePlaying {
		t.Fatalf("next round state: round=%d turn=%d phase=%s", g.Round, g.CurrentTurn, g.Phase)
	}
	if len(g.History) != 1 || g.History[0].WinnerSeat != wantWinner || len(g.History[0].Plays) != 2 {
		t.Fatalf("history record wrong: %+v", g.History)
	}
}

func TestResolveRoundRequiresCompletedTrick(t *testing.T) {
	g := mustNewGame(t, ModeDuel, 2, 5)
	if err := g.ResolveRound(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("resolve in playing phase err = %v, want %v", err, ErrWrongPhase)
	}
}

func TestDrawOrderWinnerFirst(t *testing.T) {
	bottom := Card{Suit: Clubs, Rank: Four}
	top := Card{Suit: Clubs, Rank: Five}
	g := &Game{
		Mode:  ModeDuel,
		Phase: PhaseRoundComplete,
		Players: []*Player{
			{UserID: "a", Seat: 0, Hand: []Card{{Suit: Cups, Rank: Two}, {Suit: Cups, Rank: Four}}},
			{UserID: "b", Seat: 1, Hand: []Card{{Suit: Cups, Rank: Five}, {Suit: Cups, Rank: Six}}},
		},
		Deck:      []Card{bottom, top},
		Trump:     &Card{Suit: Swords, Rank: King},
		TrumpSuit: Swords,
		PlayArea: []PlayedCard{
			{Card: Card{Suit: Coins, Rank: Two}, Seat: 0},
			{Card: Card{Suit: Coins, Rank: Ace}, Seat: 1},
		},
		Round:       1,
		RoundWinner: 1,
	}

	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	// Winner (seat 1) draws the top card, then seat 0 takes the next.
	if got := g.Players[1].Hand[2]; got != top {
		t.Fatalf("winner drew %v, want %v", got, top)
	}
	if got := g.Players[0].Hand[2]; got != bottom {
		t.Fatalf("loser drew %v, want %v", got, bottom)
	}
	if len(g.Deck) != 0 {
		t.Fatalf("deck = %d, want empty", len(g.Deck))
	}
}

func TestTrumpTakenAsFinalDraw(t *testing.T) {
	last := Card{Suit: Clubs, Rank: Six}
	trump := Card{Suit: Swords, Rank: King}
	g := &Game{
		Mode:  ModeDuel,
		Phase: PhaseRoundComplete,
		Players: []*Player{
			{UserID: "a", Seat: 0, Hand: []Card{{Suit: Cups, Rank: Two}, {Suit: Cups, Rank: Four}}},
			{UserID: "b", Seat: 1, Hand: []Card{{Suit: Cups, Rank: Five}, {Suit: Cups, Rank: Six}}},
		},
		Deck:      []Card{last},
		Trump:     &trump,
		TrumpSuit: Swords,
		PlayArea: []PlayedCard{
			{Card: Card{Suit: Coins, Rank: Two}, Seat: 0},
			{Card: Card{Suit: Coins, Rank: Five}, Seat: 1},
		},
		Round:       1,
		RoundWinner: 0,
	}

	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if got := g.Players[0].Hand[2]; got != last {
		t.Fatalf("winner drew %v, want the last deck card %v", got, last)
	}
	if got := g.Players[1].Hand[2]; got != trump {
		t.Fatalf("second drawer got %v, want the trump card %v", got, trump)
	}
	if g.Trump != nil {
		t.Fatal("trump slot should be consumed")
	}
	if g.Phase != PhasePlaying {
		t.Fatalf("phase = %s, want %s (hands not empty yet)", g.Phase, PhasePlaying)
	}

	// With the deck and trump gone, swapping is no longer possible.
	if err := g.SwapTrump(0, g.Players[0].Hand[0].ID()); !errors.Is(err, ErrSwapNotAllowed) {
		t.Fatalf("swap after trump consumed err = %v, want %v", err, ErrSwapNotAllowed)
	}
}

func TestGameOverNeedsEverythingEmpty(t *testing.T) {
	g := &Game{
		Mode:  ModeDuel,
		Phase: PhaseRoundComplete,
		Players: []*Player{
			{UserID: "a", Seat: 0, Stack: []Card{{Suit: Coins, Rank: Ace}}},
			{UserID: "b", Seat: 1},
		},
		TrumpSuit: Swords,
		PlayArea: []PlayedCard{
			{Card: Card{Suit: Coins, Rank: Two}, Seat: 0},
			{Card: Card{Suit: Coins, Rank: Three}, Seat: 1},
		},
		Round:       20,
		RoundWinner: 1,
	}

	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if g.Phase != PhaseEnded {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseEnded)
	}
	if g.Result == nil {
		t.Fatal("result missing after game over")
	}
	// Seat 0 banked 11, seat 1 won the last 10.
	if g.Result.Scores[0] != 11 || g.Result.Scores[1] != 10 {
		t.Fatalf("scores = %v", g.Result.Scores)
	}
	if g.Result.Tie || len(g.Result.TopSeats) != 1 || g.Result.TopSeats[0] != 0 {
		t.Fatalf("winner report wrong: %+v", g.Result)
	}
}

func TestGameContinuesWhileTrumpRemains(t *testing.T) {
	trump := Card{Suit: Swords, Rank: Two}
	g := &Game{
		Mode:      ModeDuel,
		Phase:     PhaseRoundComplete,
		Players:   []*Player{{UserID: "a", Seat: 0}, {UserID: "b", Seat: 1}},
		Trump:     &trump,
		TrumpSuit: Swords,
		PlayArea: []PlayedCard{
			{Card: Card{Suit: Coins, Rank: Two}, Seat: 0},
			{Card: Card{Suit: Coins, Rank: Four}, Seat: 1},
		},
		Round:       19,
		RoundWinner: 0,
	}

	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	// The winner picked up the trump as the final draw; one card is still live.
	if g.Phase != PhasePlaying {
		t.Fatalf("phase = %s, want %s", g.Phase, PhasePlaying)
	}
	if len(g.Players[0].Hand) != 1 || g.Players[0].Hand[0] != trump {
		t.Fatalf("winner hand = %v, want the trump card", g.Players[0].Hand)
	}
}

func TestResultTieReported(t *testing.T) {
	g := &Game{
		Mode:  ModeDuel,
		Phase: PhaseRoundComplete,
		Players: []*Player{
			{UserID: "a", Seat: 0, Stack: []Card{{Suit: Coins, Rank: Ace}, {Suit: Cups, Rank: Ace}}},
			{UserID: "b", Seat: 1, Stack: []Card{{Suit: Swords, Rank: Ace}, {Suit: Clubs, Rank: Ace}}},
		},
		TrumpSuit: Swords,
		PlayArea: []PlayedCard{
			{Card: Card{Suit: Coins, Rank: Two}, Seat: 0},
			{Card: Card{Suit: Coins, Rank: Four}, Seat: 1},
		},
		Round:       20,
		RoundWinner: 0,
	}

	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if !g.Result.Tie {
		t.Fatalf("expected tie, got %+v", g.Result)
	}
	if len(g.Result.TopSeats) != 2 {
		t.Fatalf("top seats = %v, want both", g.Result.TopSeats)
	}
}

func TestTeamTurnOrderAlternates(t *testing.T) {
	assignment := map[int]int{0: 0, 1: 1, 2: 0, 3: 1}
	for leader := 0; leader < 4; leader++ {
		order := buildTeamTurnOrder(assignment, leader)
		if order[0] != leader {
			t.Fatalf("leader %d: order starts at %d", leader, order[0])
		}
		if len(order) != 4 {
			t.Fatalf("leader %d: order = %v", leader, order)
		}
		for i := 1; i < len(order); i++ {
			if assignment[order[i]] == assignment[order[i-1]] {
				t.Fatalf("leader %d: consecutive same-team seats in %v", leader, order)
			}
		}
	}
}

func TestTeamsRoundRebuildsTurnOrder(t *testing.T) {
	g := mustNewGame(t, ModeTeams, 4, 6)
	if err := g.BeginPlay(); err != nil {
		t.Fatalf("BeginPlay: %v", err)
	}
	if err := g.BeginPlay(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("second BeginPlay err = %v, want %v", err, ErrWrongPhase)
	}

	for i := 0; i < 4; i++ {
		seat := g.CurrentTurn
		if want := g.Teams.TurnOrder[i]; seat != want {
			t.Fatalf("play %d at seat %d, want %d", i, seat, want)
		}
		if err := g.PlayCard(seat, g.PlayerBySeat(seat).Hand[0].ID()); err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
	}
	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if g.Teams.TurnOrder[0] != g.RoundWinner {
		t.Fatalf("turn order %v does not start at round winner %d", g.Teams.TurnOrder, g.RoundWinner)
	}
	for i := 1; i < 4; i++ {
		a, b := g.Teams.TurnOrder[i-1], g.Teams.TurnOrder[i]
		if g.Teams.Assignment[a] == g.Teams.Assignment[b] {
			t.Fatalf("rebuilt order %v has adjacent teammates", g.Teams.TurnOrder)
		}
	}
}

func TestTeamsResultAggregatesAndTies(t *testing.T) {
	base := func() *Game {
		return &Game{
			Mode:  ModeTeams,
			Phase: PhaseRoundComplete,
			Players: []*Player{
				{UserID: "a", Seat: 0, Stack: []Card{{Suit: Coins, Rank: Ace}}},
				{UserID: "b", Seat: 1},
				{UserID: "c", Seat: 2, Stack: []Card{{Suit: Cups, Rank: Three}}},
				{UserID: "d", Seat: 3, Stack: []Card{{Suit: Swords, Rank: King}}},
			},
			Teams: &TeamPlay{
				Assignment: map[int]int{0: 0, 1: 1, 2: 0, 3: 1},
				TurnOrder:  []int{0, 1, 2, 3},
			},
			TrumpSuit: Swords,
			PlayArea: []PlayedCard{
				{Card: Card{Suit: Coins, Rank: Two}, Seat: 0},
				{Card: Card{Suit: Coins, Rank: Four}, Seat: 1},
				{Card: Card{Suit: Coins, Rank: Five}, Seat: 2},
				{Card: Card{Suit: Coins, Rank: Six}, Seat: 3},
			},
			Round:       10,
			RoundWinner: 0,
		}
	}

	g := base()
	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	// Team 0 holds seats 0 and 2: 11 + 10; team 1 holds the King: 4.
	if g.Result.TeamScores[0] != 21 || g.Result.TeamScores[1] != 4 {
		t.Fatalf("team scores = %v", g.Result.TeamScores)
	}
	if g.Result.WinningTeam != 0 || g.Result.Tie {
		t.Fatalf("winner report wrong: %+v", g.Result)
	}

	// Equal aggregates must come back as a tie, not a pick.
	g = base()
	g.Players[3].Stack = []Card{{Suit: Swords, Rank: Ace}, {Suit: Clubs, Rank: Three}}
	if err := g.ResolveRound(); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if g.Result.TeamScores[0] != 21 || g.Result.TeamScores[1] != 21 {
		t.Fatalf("team scores = %v", g.Result.TeamScores)
	}
	if !g.Result.Tie || g.Result.WinningTeam != -1 {
		t.Fatalf("tie report wrong: %+v", g.Result)
	}
}
