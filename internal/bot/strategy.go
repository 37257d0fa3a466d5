package bot

import "briscola/internal/domain"

// pointsWorthTaking is the trick value above which the bot spends a winning
// card instead of dumping.
const pointsWorthTaking = 10

// calculateMove picks a greedy move: grab any profitable trump swap, win
// tricks that carry points with the cheapest winning card, otherwise shed the
// least valuable card while holding trumps back.
func calculateMove(game *domain.Game, player *domain.Player) Move {
	var move Move

	hand := player.Hand
	if swap := findSwap(game, player); swap != "" {
		// The swapped-away card is no longer playable this turn.
		kept := make([]domain.Card, 0, len(hand))
		for _, c := range hand {
			if c.ID() != swap {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			move.SwapCardID = swap
			hand = kept
		}
	}

	if len(hand) == 0 {
		return move
	}
	if len(game.PlayArea) == 0 {
		move.CardID = cheapestCard(game, hand).ID()
		return move
	}

	tablePoints := 0
	for _, pc := range game.PlayArea {
		tablePoints += pc.Card.Points()
	}

	var winners []domain.Card
	for _, c := range hand {
		plays := append(append([]domain.PlayedCard(nil), game.PlayArea...), domain.PlayedCard{Card: c, Seat: player.Seat})
		if domain.EvaluateTrick(plays, game.TrumpSuit) == player.Seat {
			winners = append(winners, c)
		}
	}

	if len(winners) > 0 && tablePoints >= pointsWorthTaking {
		move.CardID = cheapestCard(game, winners).ID()
		return move
	}
	if len(winners) > 0 {
		// Low-value trick: take it only if a winner costs us nothing.
		best := cheapestCard(game, winners)
		if best.Points() == 0 && best.Suit != game.TrumpSuit {
			move.CardID = best.ID()
			return move
		}
	}
	move.CardID = cheapestCard(game, hand).ID()
	return move
}

// findSwap returns the hand card for a legal trump swap worth making, or "".
func findSwap(game *domain.Game, player *domain.Player) string {
	if game.Trump == nil || len(game.Deck) == 0 {
		return ""
	}
	if game.Phase != domain.PhasePlaying && game.Phase != domain.PhaseRoundComplete {
		return ""
	}
	for _, c := range player.Hand {
		if c.Suit != game.TrumpSuit {
			continue
		}
		if c.Rank == domain.Seven && game.Trump.Rank.IsMajor() {
			return c.ID()
		}
		if c.Rank == domain.Two && !game.Trump.Rank.IsMajor() {
			return c.ID()
		}
	}
	return ""
}

// cheapestCard picks the card the bot minds losing least: fewest points, then
// non-trump over trump, then lowest strength.
func cheapestCard(game *domain.Game, cards []domain.Card) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if cardCost(game, c) < cardCost(game, best) {
			best = c
		}
	}
	return best
}

func cardCost(game *domain.Game, c domain.Card) int {
	cost := c.Points()*100 + c.Strength()
	if c.Suit == game.TrumpSuit {
		cost += 50
	}
	return cost
}
