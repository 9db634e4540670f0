// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ranked-pick API.

# Handler Types

  - PollHandler: Poll lifecycle (create, add candidates, publish, close)
  - VotingHandler: Username claims, ballot submission, my-ballot
  - ResultsHandler: Poll info and results retrieval

	pollHandler := handlers.NewPollHandler(db, cfg)

# Poll Lifecycle

Polls progress through three states: draft → open → closed

	POST /polls                 → CreatePoll (returns admin_key)
	POST /polls/{id}/candidates → AddCandidate (draft only, at most 9)
	POST /polls/{id}/publish    → PublishPoll (needs 2 candidates)
	POST /polls/{id}/close      → ClosePoll (runs the tally)

# Ballots

A ballot is a ranking of every candidate ID. SubmitBallot checks it with the
same rules the tally applies, so stored ballots are always complete while
the poll is open. Resubmitting replaces the voter's ranking.

# Tally

	snapshot, err := ComputeRankedPairs(db, pollID)

Loads candidates in position order, feeds every ballot to a tideman.Election
and maps the result back to candidate IDs. The snapshot stores an inputs
hash over the counted ballot IDs.
*/
package handlers
