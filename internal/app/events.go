package app

import "briscola/internal/domain"

// EventKind identifies emitted game events for host dispatch.
type EventKind string

const (
	EventGameStarted  EventKind = "game_started"
	EventHandDealt    EventKind = "hand_dealt"
	EventPlayBegan    EventKind = "play_began"
	EventCardPlayed   EventKind = "card_played"
	EventTrumpSwapped EventKind = "trump_swapped"
	EventRoundEnded   EventKind = "round_ended"
	EventGameEnded    EventKind = "game_ended"
)

// Event is a game event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	GameID        string       `json:"game_id"`
	Mode          domain.Mode  `json:"mode"`
	Phase         domain.Phase `json:"phase"`
	Trump         domain.Card  `json:"trump"`
	FirstTurnSeat int          `json:"first_turn_seat"`
	Teams         map[int]int  `json:"teams,omitempty"`
}

// HandDealtPayload is sent privately to one player. In the teams mode the
// teammate's hand rides along during the reveal phase.
type HandDealtPayload struct {
	UserID       string        `json:"user_id"`
	Seat         int           `json:"seat"`
	Hand         []domain.Card `json:"hand"`
	TeammateSeat int           `json:"teammate_seat"` // -1 outside the reveal
	TeammateHand []domain.Card `json:"teammate_hand,omitempty"`
}

type PlayBeganPayload struct {
	FirstTurnSeat int `json:"first_turn_seat"`
}

type CardPlayedPayload struct {
	Seat          int         `json:"seat"`
	Card          domain.Card `json:"card"`
	NextTurnSeat  int         `json:"next_turn_seat"` // -1 while the trick awaits resolution
	RoundComplete bool        `json:"round_complete"`
	RoundWinner   int         `json:"round_winner"` // -1 unless RoundComplete
}

type TrumpSwappedPayload struct {
	Seat     int         `json:"seat"`
	NewTrump domain.Card `json:"new_trump"`
}

type RoundEndedPayload struct {
	Round        int  `json:"round"`
	WinnerSeat   int  `json:"winner_seat"`
	Points       int  `json:"points"`
	NextTurnSeat int  `json:"next_turn_seat"` // -1 when the game ended
	GameOver     bool `json:"game_over"`
}

type GameEndedPayload struct {
	Result domain.Result `json:"result"`
}
