package cards

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
)

// ErrDeckExhausted is returned when more cards are requested than remain.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is a randomized, exhaustible sequence of cards. One deck serves
// exactly one hand; a new deck must be built for the next one.
type Deck struct {
	cards []Card
	index int
}

// NewDeck builds a full 52-card deck shuffled with a non-predictable seed.
func NewDeck() *Deck {
	return NewDeckWithRand(newSecureRand())
}

// NewDeckWithRand builds a full shuffled deck using the provided source.
// Tests use this for reproducible deals.
func NewDeckWithRand(rng *rand.Rand) *Deck {
	d := &Deck{cards: fullSet()}
	d.shuffle(rng)
	return d
}

// NewDeckExcluding builds a shuffled deck from the complement of the already
// dealt cards. Used when resuming a hand from a persisted snapshot.
func NewDeckExcluding(dealt []Card) *Deck {
	return NewDeckExcludingWithRand(dealt, newSecureRand())
}

// NewDeckExcludingWithRand is NewDeckExcluding with an explicit source.
func NewDeckExcludingWithRand(dealt []Card, rng *rand.Rand) *Deck {
	used := make(map[Card]bool, len(dealt))
	for _, c := range dealt {
		used[c] = true
	}

	remaining := make([]Card, 0, 52-len(dealt))
	for _, c := range fullSet() {
		if !used[c] {
			remaining = append(remaining, c)
		}
	}

	d := &Deck{cards: remaining}
	d.shuffle(rng)
	return d
}

// Draw removes and returns the next n cards from the deck.
func (d *Deck) Draw(n int) ([]Card, error) {
	if d.index+n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	drawn := d.cards[d.index : d.index+n]
	d.index += n
	return drawn, nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.index
}

func (d *Deck) shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func fullSet() []Card {
	set := make([]Card, 0, 52)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			set = append(set, Card{Suit: suit, Rank: rank})
		}
	}
	return set
}

// newSecureRand seeds a math/rand generator from crypto/rand so shuffle
// order is not predictable from wall-clock time.
func newSecureRand() *rand.Rand {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("cards: unable to read random seed: " + err.Error())
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}
