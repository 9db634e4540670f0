// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tideman

// LockGraph is the adjacency matrix of locked preferences: g[w][l] is true
// once the edge w→l has been committed. Edges are never removed and the graph
// stays acyclic as long as edges are only added through Lock.
type LockGraph [][]bool

// NewLockGraph returns an n×n graph with no edges.
func NewLockGraph(n int) LockGraph {
	g := make(LockGraph, n)
	for i := range g {
		g[i] = make([]bool, n)
	}
	return g
}

// WouldCycle reports whether locking w→l would close a cycle, i.e. whether l
// already reaches w over locked edges. A self pair always cycles.
//
// The search is an iterative DFS from l; each candidate is pushed at most
// once, so one query touches at most N nodes and N² matrix cells.
func (g LockGraph) WouldCycle(w, l int) bool {
	if w == l {
		return true
	}

	visited := make([]bool, len(g))
	stack := make([]int, 0, len(g))
	visited[l] = true
	stack = append(stack, l)

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == w {
			return true
		}
		for next, locked := range g[v] {
			if locked && !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// Lock commits p unless it would create a cycle and reports whether it did.
func (g LockGraph) Lock(p Pair) bool {
	if g.WouldCycle(p.Winner, p.Loser) {
		return false
	}
	g[p.Winner][p.Loser] = true
	return true
}

// LockAll locks ranked in order and returns the pairs that were skipped.
// A skipped pair is final for this graph; it is not retried after later
// pairs are locked.
func (g LockGraph) LockAll(ranked []Pair) []Pair {
	var skipped []Pair
	for _, p := range ranked {
		if !g.Lock(p) {
			skipped = append(skipped, p)
		}
	}
	return skipped
}

// Edges lists locked edges in row-major order.
func (g LockGraph) Edges() []Pair {
	var edges []Pair
	for w := range g {
		for l, locked := range g[w] {
			if locked {
				edges = append(edges, Pair{Winner: w, Loser: l})
			}
		}
	}
	return edges
}

// HasCycle checks the whole graph, independently of how it was built.
func (g LockGraph) HasCycle() bool {
	return len(g.order()) < len(g)
}

// order peels sources off the graph, always taking the lowest remaining index
// first. On an acyclic graph it returns every candidate; when a cycle exists
// the candidates on or behind it are left out.
func (g LockGraph) order() []int {
	n := len(g)
	indegree := make([]int, n)
	for w := range g {
		for l, locked := range g[w] {
			if locked {
				indegree[l]++
			}
		}
	}

	done := make([]bool, n)
	out := make([]int, 0, n)
	for len(out) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		done[next] = true
		out = append(out, next)
		for l, locked := range g[next] {
			if locked {
				indegree[l]--
			}
		}
	}
	return out
}
