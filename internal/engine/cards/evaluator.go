package cards

import "github.com/alexclewontin/riverboat/eval"

// HandRank is an evaluated hand strength. Riverboat scores are
// lower-is-better; that convention stays inside this package, engine code
// compares ranks through Beats.
type HandRank struct {
	Score int
	Name  string
	Best  []Card
}

// Beats reports whether rank a is strictly stronger than rank b.
func (a HandRank) Beats(b HandRank) bool {
	return a.Score < b.Score
}

// Ties reports whether the two ranks are of equal strength.
func (a HandRank) Ties(b HandRank) bool {
	return a.Score == b.Score
}

// Evaluate returns the best five-card hand from two hole cards and five
// community cards.
func Evaluate(hole []Card, community []Card) HandRank {
	if len(hole) != 2 || len(community) != 5 {
		return HandRank{Score: int(^uint(0) >> 1), Name: "invalid"}
	}

	all := make([]eval.Card, 0, 7)
	for _, c := range hole {
		all = append(all, toEvalCard(c))
	}
	for _, c := range community {
		all = append(all, toEvalCard(c))
	}

	best, score := eval.BestFiveOfSeven(all[0], all[1], all[2], all[3], all[4], all[5], all[6])

	bestCards := make([]Card, len(best))
	for i, ec := range best {
		bestCards[i] = fromEvalCard(ec)
	}

	return HandRank{
		Score: score,
		Name:  rankName(score),
		Best:  bestCards,
	}
}

func toEvalCard(c Card) eval.Card {
	var suit int
	for i, s := range Suits {
		if c.Suit == s {
			suit = i
			break
		}
	}
	var rank int
	for i, r := range Ranks {
		if c.Rank == r {
			rank = i
			break
		}
	}
	return eval.Card(rank + suit*13)
}

func fromEvalCard(ec eval.Card) Card {
	return Card{
		Suit: Suits[int(ec)/13],
		Rank: Ranks[int(ec)%13],
	}
}

// rankName maps a riverboat score to the standard hand class name.
func rankName(score int) string {
	switch {
	case score <= 10:
		return "Royal Flush"
	case score <= 166:
		return "Straight Flush"
	case score <= 322:
		return "Four of a Kind"
	case score <= 1599:
		return "Full House"
	case score <= 1609:
		return "Flush"
	case score <= 1619:
		return "Straight"
	case score <= 2467:
		return "Three of a Kind"
	case score <= 3325:
		return "Two Pair"
	case score <= 6185:
		return "One Pair"
	default:
		return "High Card"
	}
}
