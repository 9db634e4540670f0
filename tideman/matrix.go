// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tideman

import "fmt"

// PreferenceMatrix holds head-to-head counts: m[i][j] is the number of
// ballots that rank candidate i above candidate j. The diagonal stays zero.
type PreferenceMatrix [][]int

// NewPreferenceMatrix returns an n×n matrix of zeros.
func NewPreferenceMatrix(n int) PreferenceMatrix {
	m := make(PreferenceMatrix, n)
	for i := range m {
		m[i] = make([]int, n)
	}
	return m
}

// Size returns the number of candidates the matrix covers.
func (m PreferenceMatrix) Size() int {
	return len(m)
}

// Record adds one ballot: the candidate at each rank is preferred over every
// candidate ranked after it. Record panics, leaving m unchanged, when b is not
// a permutation of 0..Size()-1. Election.Record reports the same problems as
// errors.
func (m PreferenceMatrix) Record(b Ballot) {
	if len(b) != len(m) {
		panic(fmt.Sprintf("tideman: ballot ranks %d candidates, matrix has %d", len(b), len(m)))
	}
	for p, c := range b {
		if c < 0 || c >= len(m) {
			panic(fmt.Sprintf("tideman: candidate %d out of range [0,%d)", c, len(m)))
		}
		for _, d := range b[p+1:] {
			if c == d {
				panic(fmt.Sprintf("tideman: candidate %d ranked twice", c))
			}
		}
	}

	for p := 0; p < len(b); p++ {
		for q := p + 1; q < len(b); q++ {
			m[b[p]][b[q]]++
		}
	}
}

// Strength is the margin by which p.Winner beats p.Loser.
func (m PreferenceMatrix) Strength(p Pair) int {
	return m[p.Winner][p.Loser] - m[p.Loser][p.Winner]
}

// Add merges other into m by elementwise addition. Matrices accumulated in
// parallel over disjoint ballot sets must be merged this way before pairs are
// extracted.
func (m PreferenceMatrix) Add(other PreferenceMatrix) error {
	if len(other) != len(m) {
		return fmt.Errorf("%w: %d×%d matrix merged into %d×%d",
			ErrMismatchedElection, len(other), len(other), len(m), len(m))
	}
	for i := range m {
		for j := range m[i] {
			m[i][j] += other[i][j]
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m PreferenceMatrix) Clone() PreferenceMatrix {
	c := make(PreferenceMatrix, len(m))
	for i := range m {
		c[i] = append([]int(nil), m[i]...)
	}
	return c
}
