// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tideman

import "errors"

var (
	ErrTooManyCandidates  = errors.New("too many candidates")
	ErrDuplicateCandidate = errors.New("duplicate candidate name")

	// ErrInvalidBallot is wrapped by every ballot rejection below.
	ErrInvalidBallot    = errors.New("invalid ballot")
	ErrBallotLength     = errors.New("ballot does not rank every candidate")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrDuplicateRank    = errors.New("candidate ranked more than once")

	ErrTabulated          = errors.New("election already tabulated")
	ErrMismatchedElection = errors.New("elections have different candidates")
)
