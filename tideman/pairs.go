// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tideman

import (
	"cmp"
	"fmt"
	"slices"
)

// Pair is a head-to-head majority: more ballots rank Winner above Loser than
// the other way round.
type Pair struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%d>%d", p.Winner, p.Loser)
}

// ExtractPairs walks every unordered pair {i, j} with i < j and emits the
// majority direction. Tied pairs produce nothing.
func ExtractPairs(m PreferenceMatrix) []Pair {
	n := m.Size()
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case m[i][j] > m[j][i]:
				pairs = append(pairs, Pair{Winner: i, Loser: j})
			case m[j][i] > m[i][j]:
				pairs = append(pairs, Pair{Winner: j, Loser: i})
			}
		}
	}
	return pairs
}

// RankPairs returns a copy of pairs ordered by descending strength. Pairs of
// equal strength keep their input order. Strength is read from m at compare
// time, not cached on the pairs.
func RankPairs(m PreferenceMatrix, pairs []Pair) []Pair {
	ranked := slices.Clone(pairs)
	slices.SortStableFunc(ranked, func(a, b Pair) int {
		return cmp.Compare(m.Strength(b), m.Strength(a))
	})
	return ranked
}
