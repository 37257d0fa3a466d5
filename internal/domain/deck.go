package domain

import (
	"fmt"
	"math/rand"
)

// NewDeck returns the full 40-card catalog in suit then rank order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns a uniformly shuffled copy of the given deck.
func ShuffleDeck(rng *rand.Rand, deck []Card) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// drawTop pops the top card. The top of the deck is the end of the slice.
func drawTop(deck []Card) (Card, []Card) {
	last := len(deck) - 1
	return deck[last], deck[:last]
}

// DealHands deals handSize cards to each of numPlayers, one card at a time in
// round-robin order from the top of the deck, and returns the hands together
// with the remaining deck. A deck too small to finish the deal is reported as
// an error with nothing dealt.
func DealHands(deck []Card, numPlayers, handSize int) ([][]Card, []Card, error) {
	need := numPlayers * handSize
	if len(deck) < need {
		return nil, deck, fmt.Errorf("deck has %d cards, need %d to deal", len(deck), need)
	}

	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, handSize)
	}
	for c := 0; c < handSize; c++ {
		for p := 0; p < numPlayers; p++ {
			var card Card
			card, deck = drawTop(deck)
			hands[p] = append(hands[p], card)
		}
	}
	return hands, deck, nil
}

// TruncateForBalance discards cards from the bottom of the deck until its size
// divides evenly by numPlayers, and returns the deck with the discard count.
// The discarded cards are gone for good: nobody sees them and their points
// leave the game.
func TruncateForBalance(deck []Card, numPlayers int) ([]Card, int) {
	extra := len(deck) % numPlayers
	if extra == 0 {
		return deck, 0
	}
	return append([]Card(nil), deck[extra:]...), extra
}
