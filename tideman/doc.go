// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tideman tabulates ranked ballots with the Tideman ranked-pairs method.

# Pipeline

One tabulation runs in five stages, strictly in order:

	ballots → PreferenceMatrix → ExtractPairs → RankPairs → LockGraph → Resolve

  - PreferenceMatrix: m[i][j] counts ballots ranking candidate i above j
  - ExtractPairs: one Pair per head-to-head majority, ties dropped
  - RankPairs: stable sort by descending margin m[w][l] - m[l][w]
  - LockGraph: pairs locked in ranked order unless they would close a cycle
  - Resolve: the candidate no locked edge points at

# Elections

An Election owns the matrix for one run. Candidates are fixed when the
election is created and ballots are recorded one at a time:

	e, err := tideman.New([]string{"Alice", "Bob", "Charlie"})
	if err != nil {
		return err
	}
	if err := e.Vote([]string{"Alice", "Bob", "Charlie"}); err != nil {
		return err // unknown name, repeated name or short ballot
	}
	res := e.Tabulate()
	if name, ok := res.WinnerName(); ok {
		fmt.Println(name)
	}

Ballots must be full permutations of the candidate indices. Invalid ballots
are rejected with an error wrapping ErrInvalidBallot before they touch the
matrix. Once Tabulate has run the election is sealed and Record returns
ErrTabulated.

# Winners

Resolve scans candidates in index order and returns the first one with no
incoming locked edge. Result.Winner is only set when that candidate is the
sole source of the lock graph; when ties leave several sources (or there are
no candidates at all) it holds NoWinner, which is never a valid index.

# Limits

At most MaxCandidates candidates are accepted. Each cycle query is a
depth-first search over the lock graph, so a full run costs O(N⁴) in the
number of candidates, which is only reasonable because N is small.
*/
package tideman
