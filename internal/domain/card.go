package domain

import "fmt"

// Suit is one of the four Italian suits of the Briscola deck.
type Suit string

const (
	Clubs  Suit = "clubs"
	Coins  Suit = "coins"
	Cups   Suit = "cups"
	Swords Suit = "swords"
)

// Suits lists every suit in catalog order.
var Suits = [4]Suit{Clubs, Coins, Cups, Swords}

// Rank is the face of a card: Ace, the number cards 2..7 and the three court cards.
type Rank int

const (
	Ace    Rank = 1
	Two    Rank = 2
	Three  Rank = 3
	Four   Rank = 4
	Five   Rank = 5
	Six    Rank = 6
	Seven  Rank = 7
	Jack   Rank = 8
	Knight Rank = 9
	King   Rank = 10
)

// Ranks lists every rank in catalog order.
var Ranks = [10]Rank{Ace, Two, Three, Four, Five, Six, Seven, Jack, Knight, King}

const (
	// DeckSize is the number of cards in a full Briscola deck.
	DeckSize = 40
	// TotalPoints is the sum of card points across the full deck.
	TotalPoints = 120
	// HandSize is how many cards each player holds while the deck lasts.
	HandSize = 3
)

// rankPoints holds the scoring value per rank. Absent ranks score zero.
var rankPoints = map[Rank]int{
	Ace:    11,
	Three:  10,
	King:   4,
	Knight: 3,
	Jack:   2,
}

// rankStrength orders ranks for trick resolution; higher wins within a suit.
// Strength is unrelated to point value: the Seven outranks the Six despite
// both scoring zero, and the Two is the weakest card in the deck.
var rankStrength = map[Rank]int{
	Ace:    9,
	Three:  8,
	King:   7,
	Knight: 6,
	Jack:   5,
	Seven:  4,
	Six:    3,
	Five:   2,
	Four:   1,
	Two:    0,
}

// IsMajor reports whether the rank counts as "major" for trump-swap
// eligibility: King, Knight, Jack, Ace and Three.
func (r Rank) IsMajor() bool {
	switch r {
	case King, Knight, Jack, Ace, Three:
		return true
	}
	return false
}

// Card is a single immutable playing card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// ID returns the stable identity clients use to reference this card in
// commands, e.g. "coins-1" for the Ace of coins.
func (c Card) ID() string {
	return fmt.Sprintf("%s-%d", c.Suit, int(c.Rank))
}

// Points returns the scoring value of the card.
func (c Card) Points() int {
	return rankPoints[c.Rank]
}

// Strength returns the trick-resolution strength of the card within its suit;
// higher is stronger.
func (c Card) Strength() int {
	return rankStrength[c.Rank]
}
