package domain

// SwapTrump exchanges a card from the seat's hand with the face-up trump card.
// The offered card must be of the trump suit: the Seven may be exchanged while
// the face-up trump is a major rank, the Two while it is a minor rank, and no
// other rank ever. The swap is open to any player regardless of turn, during
// play or while a trick awaits resolution, and may repeat as long as the
// preconditions hold. It becomes impossible once the deck is empty, because
// the trump card is needed as the final draw. The old trump enters the hand at
// the slot the offered card occupied, so hand size never changes.
func (g *Game) SwapTrump(seat int, cardID string) error {
	if g.Phase != PhasePlaying && g.Phase != PhaseRoundComplete {
		return ErrWrongPhase
	}
	if g.Trump == nil || len(g.Deck) == 0 {
		return ErrSwapNotAllowed
	}
	p := g.PlayerBySeat(seat)
	if p == nil {
		return ErrUnknownSeat
	}
	idx := handIndex(p.Hand, cardID)
	if idx < 0 {
		return ErrCardNotHeld
	}

	offered := p.Hand[idx]
	if offered.Suit != g.TrumpSuit {
		return ErrSwapNotAllowed
	}
	switch offered.Rank {
	case Seven:
		if !g.Trump.Rank.IsMajor() {
			return ErrSwapNotAllowed
		}
	case Two:
		if g.Trump.Rank.IsMajor() {
			return ErrSwapNotAllowed
		}
	default:
		return ErrSwapNotAllowed
	}

	old := *g.Trump
	*g.Trump = offered
	p.Hand[idx] = old
	g.LastSwapSeat = seat
	return nil
}
