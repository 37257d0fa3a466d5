package domain

// EvaluateTrick returns the seat winning a completed trick under the given
// trump suit. The leading suit is the suit of the first card played. Any trump
// beats every non-trump; among trumps, or among cards of the leading suit, the
// strongest rank wins. The function is pure: identical input always yields the
// same winner.
func EvaluateTrick(plays []PlayedCard, trump Suit) int {
	if len(plays) == 0 {
		return -1
	}

	winner := -1
	best := -1
	for _, pc := range plays {
		if pc.Card.Suit != trump {
			continue
		}
		if s := pc.Card.Strength(); s > best {
			best = s
			winner = pc.Seat
		}
	}
	if winner >= 0 {
		return winner
	}

	lead := plays[0].Card.Suit
	for _, pc := range plays {
		if pc.Card.Suit != lead {
			continue
		}
		if s := pc.Card.Strength(); s > best {
			best = s
			winner = pc.Seat
		}
	}
	if winner >= 0 {
		return winner
	}

	// The leading card always matches the leading suit, so this point is
	// unreachable under legal play; fall back to the first seat to act.
	return plays[0].Seat
}
