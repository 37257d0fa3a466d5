package bot

import "briscola/internal/domain"

// Move is one bot decision. SwapCardID, when set, is performed before the
// play; CardID is the card to put on the table.
type Move struct {
	SwapCardID string
	CardID     string
}

// Agent is an autonomous seat filler driving one seat of a game.
type Agent struct {
	ID   string
	Name string
}

// NewAgent builds an agent around a pooled identity.
func NewAgent(identity BotIdentity) *Agent {
	return &Agent{ID: identity.UserID, Name: identity.DisplayName}
}

// PlayAtSeat calculates the agent's move for the given seat.
func (a *Agent) PlayAtSeat(game *domain.Game, seat int) (Move, error) {
	player := game.PlayerBySeat(seat)
	if player == nil {
		return Move{}, domain.ErrUnknownSeat
	}
	return calculateMove(game, player), nil
}
