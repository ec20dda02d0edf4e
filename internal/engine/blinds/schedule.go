// Package blinds computes tournament blind levels. A schedule carries a list
// of explicit levels and falls back to a geometric growth formula once the
// configured horizon is exhausted, so any level index is answerable.
package blinds

import "math"

// Level is one step of a blind schedule.
type Level struct {
	SmallBlind int64 `json:"small_blind"`
	BigBlind   int64 `json:"big_blind"`
	Ante       int64 `json:"ante,omitempty"`
}

// Schedule maps level indices to blind amounts. The zero value is unusable;
// build one with at least one explicit level.
type Schedule struct {
	Levels         []Level `json:"levels"`
	GrowthFactor   float64 `json:"growth_factor"`
	AnteStartLevel int     `json:"ante_start_level"` // first level index at which antes apply; 0 disables
	CliffLevel     int     `json:"cliff_level"`      // rebuys end and add-ons begin here; 0 disables
}

// Level returns the blinds for the given level index. Beyond the explicit
// list the big blind grows geometrically from the last explicit level and
// the small blind is derived as half, so identical inputs always produce
// identical output.
func (s Schedule) Level(index int) Level {
	if index < 0 {
		index = 0
	}

	var lvl Level
	if index < len(s.Levels) {
		lvl = s.Levels[index]
	} else {
		last := s.Levels[len(s.Levels)-1]
		growth := s.GrowthFactor
		if growth <= 1 {
			growth = 2
		}
		steps := index - len(s.Levels) + 1
		big := int64(float64(last.BigBlind) * math.Pow(growth, float64(steps)))
		big = roundToStep(big, last.BigBlind)
		lvl = Level{SmallBlind: big / 2, BigBlind: big}
	}

	if s.AnteStartLevel > 0 && index >= s.AnteStartLevel && lvl.Ante == 0 {
		lvl.Ante = lvl.BigBlind / 10
	}
	return lvl
}

// RebuyAllowed reports whether rebuys are still open at the given level.
// With no cliff configured rebuys stay open.
func (s Schedule) RebuyAllowed(index int) bool {
	return s.CliffLevel == 0 || index < s.CliffLevel
}

// AddOnAllowed reports whether add-ons are available at the given level.
func (s Schedule) AddOnAllowed(index int) bool {
	return s.CliffLevel > 0 && index >= s.CliffLevel
}

// roundToStep rounds n down to a multiple of step so computed levels land on
// the same denominations the explicit levels use.
func roundToStep(n, step int64) int64 {
	if step <= 0 {
		return n
	}
	rounded := (n / step) * step
	if rounded == 0 {
		rounded = step
	}
	return rounded
}
