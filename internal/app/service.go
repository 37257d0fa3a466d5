package app

import (
	"math/rand"
	"time"

	"briscola/internal/domain"

	"github.com/google/uuid"
)

// Service contains the Briscola use-cases operating on domain state. The host
// owns the single *domain.Game and funnels every command through here; any
// error means the command was rejected and the state is exactly as it was.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default. Tests pass a fixed seed for deterministic deals.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// StartGame deals a new game for the given players in seat order. teams is
// only meaningful for the teams mode and may be nil for the default
// assignment.
func (s *Service) StartGame(mode domain.Mode, playerIDs []string, starter int, teams map[int]int) (*domain.Game, []Event, error) {
	game, err := domain.NewGame(uuid.NewString(), mode, playerIDs, starter, s.rng, teams)
	if err != nil {
		return nil, nil, err
	}

	events := make([]Event, 0, len(playerIDs)+1)

	var teamMap map[int]int
	if game.Teams != nil {
		teamMap = game.Teams.Assignment
	}
	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:        game.ID,
			Mode:          game.Mode,
			Phase:         game.Phase,
			Trump:         *game.Trump,
			FirstTurnSeat: game.CurrentTurn,
			Teams:         teamMap,
		},
	})

	for _, p := range game.Players {
		payload := HandDealtPayload{
			UserID:       p.UserID,
			Seat:         p.Seat,
			Hand:         append([]domain.Card(nil), p.Hand...),
			TeammateSeat: -1,
		}
		if game.Phase == domain.PhaseRevealing {
			mateSeat := teammateOf(game, p.Seat)
			mate := game.PlayerBySeat(mateSeat)
			payload.TeammateSeat = mateSeat
			payload.TeammateHand = append([]domain.Card(nil), mate.Hand...)
		}
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    payload,
			Recipients: []string{p.UserID},
		})
	}

	return game, events, nil
}

// BeginPlay closes the teams reveal phase. The host calls this when the
// reveal dwell elapses.
func (s *Service) BeginPlay(game *domain.Game) ([]Event, error) {
	if err := game.BeginPlay(); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventPlayBegan,
		Payload: PlayBeganPayload{FirstTurnSeat: game.CurrentTurn},
	}}, nil
}

// PlayCard processes one play command for the seat.
func (s *Service) PlayCard(game *domain.Game, seat int, cardID string) ([]Event, error) {
	if err := game.PlayCard(seat, cardID); err != nil {
		return nil, err
	}
	card := game.PlayArea[len(game.PlayArea)-1].Card

	payload := CardPlayedPayload{
		Seat:         seat,
		Card:         card,
		NextTurnSeat: game.CurrentTurn,
		RoundWinner:  -1,
	}
	if game.Phase == domain.PhaseRoundComplete {
		payload.RoundComplete = true
		payload.RoundWinner = game.RoundWinner
		payload.NextTurnSeat = -1
	}
	return []Event{{Kind: EventCardPlayed, Payload: payload}}, nil
}

// SwapTrump processes a trump-swap command for the seat.
func (s *Service) SwapTrump(game *domain.Game, seat int, cardID string) ([]Event, error) {
	if err := game.SwapTrump(seat, cardID); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventTrumpSwapped,
		Payload: TrumpSwappedPayload{Seat: seat, NewTrump: *game.Trump},
	}}, nil
}

// ResolveRound awards the completed trick. The host invokes this after the
// resolve dwell, never directly on the play that completed the trick.
func (s *Service) ResolveRound(game *domain.Game) ([]Event, error) {
	round := game.Round
	winner := game.RoundWinner
	points := 0
	for _, pc := range game.PlayArea {
		points += pc.Card.Points()
	}

	if err := game.ResolveRound(); err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventRoundEnded,
		Payload: RoundEndedPayload{
			Round:        round,
			WinnerSeat:   winner,
			Points:       points,
			NextTurnSeat: nextTurnOrNone(game),
			GameOver:     game.Phase == domain.PhaseEnded,
		},
	}}

	if game.Phase == domain.PhaseEnded {
		events = append(events, Event{
			Kind:    EventGameEnded,
			Payload: GameEndedPayload{Result: *game.Result},
		})
	}
	return events, nil
}

func nextTurnOrNone(game *domain.Game) int {
	if game.Phase == domain.PhaseEnded {
		return -1
	}
	return game.CurrentTurn
}

// teammateOf returns the other seat on the same team.
func teammateOf(game *domain.Game, seat int) int {
	team := game.Teams.Assignment[seat]
	for other, t := range game.Teams.Assignment {
		if other != seat && t == team {
			return other
		}
	}
	return -1
}
