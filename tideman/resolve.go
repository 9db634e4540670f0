// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tideman

// NoWinner marks a result without a unique winner.
const NoWinner = -1

// Resolve returns the first candidate, in index order, that no locked edge
// points at. ok is false when there is no such candidate, which for an
// acyclic graph only happens when it has no candidates.
func Resolve(g LockGraph) (winner int, ok bool) {
	for i := range g {
		if !g.hasIncoming(i) {
			return i, true
		}
	}
	return NoWinner, false
}

// Sources returns every candidate with no incoming locked edge, in index
// order.
func (g LockGraph) Sources() []int {
	var sources []int
	for i := range g {
		if !g.hasIncoming(i) {
			sources = append(sources, i)
		}
	}
	return sources
}

// Standings returns a finishing order consistent with the locked edges:
// each position goes to the lowest-index candidate not beaten by anyone
// still unplaced.
func (g LockGraph) Standings() []int {
	return g.order()
}

func (g LockGraph) hasIncoming(i int) bool {
	for j := range g {
		if g[j][i] {
			return true
		}
	}
	return false
}
