// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tideman

import (
	"fmt"
	"slices"
)

// MaxCandidates bounds the candidate count of one election.
const MaxCandidates = 9

// Ballot is one voter's ranking as candidate indices, most preferred first.
type Ballot []int

// Election collects ballots for a fixed candidate list. It is not safe for
// concurrent use; accumulate in separate elections and Merge them instead.
type Election struct {
	names     []string
	index     map[string]int
	prefs     PreferenceMatrix
	ballots   int
	tabulated bool
}

// New creates an election over names. Candidate i is names[i].
func New(names []string) (*Election, error) {
	if len(names) > MaxCandidates {
		return nil, fmt.Errorf("%w: %d given, maximum is %d", ErrTooManyCandidates, len(names), MaxCandidates)
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCandidate, name)
		}
		index[name] = i
	}

	return &Election{
		names: slices.Clone(names),
		index: index,
		prefs: NewPreferenceMatrix(len(names)),
	}, nil
}

// Candidates returns the candidate names in index order.
func (e *Election) Candidates() []string {
	return slices.Clone(e.names)
}

// Ballots returns how many ballots have been recorded.
func (e *Election) Ballots() int {
	return e.ballots
}

// Preferences returns a copy of the current preference matrix.
func (e *Election) Preferences() PreferenceMatrix {
	return e.prefs.Clone()
}

// ParseBallot maps a ranking of candidate names to indices and checks that
// it is a complete ballot.
func (e *Election) ParseBallot(names []string) (Ballot, error) {
	b := make(Ballot, len(names))
	for rank, name := range names {
		i, ok := e.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %w: %q at rank %d", ErrInvalidBallot, ErrUnknownCandidate, name, rank+1)
		}
		b[rank] = i
	}
	if err := e.validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Vote records a ballot given as candidate names.
func (e *Election) Vote(names []string) error {
	b, err := e.ParseBallot(names)
	if err != nil {
		return err
	}
	return e.Record(b)
}

// Record adds one ballot to the preference matrix. The matrix is untouched
// when the ballot is rejected.
func (e *Election) Record(b Ballot) error {
	if e.tabulated {
		return ErrTabulated
	}
	if err := e.validate(b); err != nil {
		return err
	}
	e.prefs.Record(b)
	e.ballots++
	return nil
}

// Merge folds the ballots recorded by other into e. Both elections must list
// the same candidates in the same order and neither may be tabulated.
func (e *Election) Merge(other *Election) error {
	if other == nil {
		return fmt.Errorf("%w: nil election", ErrMismatchedElection)
	}
	if e.tabulated || other.tabulated {
		return ErrTabulated
	}
	if !slices.Equal(e.names, other.names) {
		return fmt.Errorf("%w: %v vs %v", ErrMismatchedElection, e.names, other.names)
	}
	if err := e.prefs.Add(other.prefs); err != nil {
		return err
	}
	e.ballots += other.ballots
	return nil
}

// Tabulate runs pair extraction, ranking, locking and winner resolution over
// the recorded ballots. The election is sealed afterwards.
func (e *Election) Tabulate() *Result {
	e.tabulated = true

	n := len(e.names)
	prefs := e.prefs.Clone()
	ranked := RankPairs(prefs, ExtractPairs(prefs))
	locked := NewLockGraph(n)

	pairs := make([]RankedPair, len(ranked))
	for i, p := range ranked {
		pairs[i] = RankedPair{
			Pair:    p,
			For:     prefs[p.Winner][p.Loser],
			Against: prefs[p.Loser][p.Winner],
			Locked:  locked.Lock(p),
		}
	}

	res := &Result{
		Candidates:  slices.Clone(e.names),
		Ballots:     e.ballots,
		Preferences: prefs,
		Pairs:       pairs,
		Locked:      locked,
		Winner:      NoWinner,
		Sources:     locked.Sources(),
		Standings:   locked.Standings(),
	}
	if len(res.Sources) == 1 {
		res.Winner = res.Sources[0]
	}
	return res
}

func (e *Election) validate(b Ballot) error {
	n := len(e.names)
	if len(b) != n {
		return fmt.Errorf("%w: %w: %d ranks for %d candidates", ErrInvalidBallot, ErrBallotLength, len(b), n)
	}
	seen := make([]bool, n)
	for rank, c := range b {
		if c < 0 || c >= n {
			return fmt.Errorf("%w: %w: index %d at rank %d", ErrInvalidBallot, ErrUnknownCandidate, c, rank+1)
		}
		if seen[c] {
			return fmt.Errorf("%w: %w: %q at rank %d", ErrInvalidBallot, ErrDuplicateRank, e.names[c], rank+1)
		}
		seen[c] = true
	}
	return nil
}

// RankedPair is a Pair as it went through locking.
type RankedPair struct {
	Pair
	For     int  `json:"for"`
	Against int  `json:"against"`
	Locked  bool `json:"locked"`
}

// Margin is For minus Against, the key pairs were ranked by.
func (p RankedPair) Margin() int {
	return p.For - p.Against
}

// Result is the outcome of one tabulation.
type Result struct {
	Candidates  []string
	Ballots     int
	Preferences PreferenceMatrix
	// Pairs in ranked order, each flagged locked or skipped.
	Pairs  []RankedPair
	Locked LockGraph
	// Winner is the sole source of Locked, or NoWinner.
	Winner    int
	Sources   []int
	Standings []int
}

// HasWinner reports whether the lock graph has exactly one source.
func (r *Result) HasWinner() bool {
	return r.Winner != NoWinner
}

// WinnerName returns the winning candidate's name.
func (r *Result) WinnerName() (string, bool) {
	if !r.HasWinner() {
		return "", false
	}
	return r.Candidates[r.Winner], true
}

// Skipped returns the pairs rejected because they would have closed a cycle.
func (r *Result) Skipped() []Pair {
	var skipped []Pair
	for _, p := range r.Pairs {
		if !p.Locked {
			skipped = append(skipped, p.Pair)
		}
	}
	return skipped
}
