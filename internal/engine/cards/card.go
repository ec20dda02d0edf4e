package cards

import "fmt"

// Card represents a playing card.
type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// Suits and ranks in deck-building order. Rank order also defines card value
// (index + 2), matching the evaluator's expectations.
var (
	Suits = []string{"♠", "♥", "♦", "♣"}
	Ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K", "A"}
)

// String returns a compact representation like "A♠".
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}
