// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tideman

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceMatrix_Record(t *testing.T) {
	m := NewPreferenceMatrix(3)
	m.Record(Ballot{2, 0, 1})

	want := PreferenceMatrix{
		{0, 1, 0},
		{0, 0, 0},
		{1, 1, 0},
	}
	assert.Equal(t, want, m)
}

func TestPreferenceMatrix_RecordMalformed(t *testing.T) {
	tests := []struct {
		name   string
		ballot Ballot
	}{
		{"repeated candidate", Ballot{0, 0, 1}},
		{"out of range", Ballot{0, 1, 3}},
		{"negative", Ballot{-1, 0, 1}},
		{"short", Ballot{0, 1}},
		{"long", Ballot{0, 1, 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPreferenceMatrix(3)
			assert.Panics(t, func() { m.Record(tt.ballot) })
			assert.Equal(t, NewPreferenceMatrix(3), m, "matrix must be untouched")
		})
	}
}

func TestPreferenceMatrix_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n, voters = 6, 41

	m := NewPreferenceMatrix(n)
	for v := 0; v < voters; v++ {
		m.Record(Ballot(rng.Perm(n)))
	}

	for i := 0; i < n; i++ {
		assert.Zero(t, m[i][i], "diagonal at %d", i)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			// every full ballot orders every pair exactly once
			assert.Equal(t, voters, m[i][j]+m[j][i], "pair %d,%d", i, j)
		}
	}
}

func TestPreferenceMatrix_Strength(t *testing.T) {
	m := PreferenceMatrix{
		{0, 5},
		{2, 0},
	}
	assert.Equal(t, 3, m.Strength(Pair{Winner: 0, Loser: 1}))
	assert.Equal(t, -3, m.Strength(Pair{Winner: 1, Loser: 0}))
}

func TestPreferenceMatrix_Add(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 5

	whole := NewPreferenceMatrix(n)
	left := NewPreferenceMatrix(n)
	right := NewPreferenceMatrix(n)
	for v := 0; v < 30; v++ {
		b := Ballot(rng.Perm(n))
		whole.Record(b)
		if v%2 == 0 {
			left.Record(b)
		} else {
			right.Record(b)
		}
	}

	require.NoError(t, left.Add(right))
	assert.Equal(t, whole, left)

	err := left.Add(NewPreferenceMatrix(n + 1))
	assert.ErrorIs(t, err, ErrMismatchedElection)
}

func TestPreferenceMatrix_Clone(t *testing.T) {
	m := NewPreferenceMatrix(2)
	m.Record(Ballot{0, 1})

	c := m.Clone()
	c[0][1] = 99

	assert.Equal(t, 1, m[0][1], "clone must not share rows")
}
