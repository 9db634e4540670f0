// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/ranked-pick/models"
	"github.com/danielhkuo/ranked-pick/tideman"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the tally can run
// inside the transaction that closes a poll.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// storedBallot is one ballot's ranking as candidate IDs in position order.
type storedBallot struct {
	ID      string
	Ranking []string
}

// snapshotPayload is the JSON stored in result_snapshot.payload.
type snapshotPayload struct {
	WinnerID    *string                    `json:"winner_id"`
	Standings   []models.CandidateStanding `json:"standings"`
	Pairs       []models.PairResult        `json:"pairs"`
	Preferences [][]int                    `json:"preferences"`
	BallotCount int                        `json:"ballot_count"`
	InputsHash  string                     `json:"inputs_hash"`
}

func payloadOf(s models.ResultSnapshot) snapshotPayload {
	return snapshotPayload{
		WinnerID:    s.WinnerID,
		Standings:   s.Standings,
		Pairs:       s.Pairs,
		Preferences: s.Preferences,
		BallotCount: s.BallotCount,
		InputsHash:  s.InputsHash,
	}
}

func (p snapshotPayload) apply(s *models.ResultSnapshot) {
	s.WinnerID = p.WinnerID
	s.Standings = p.Standings
	s.Pairs = p.Pairs
	s.Preferences = p.Preferences
	s.BallotCount = p.BallotCount
	s.InputsHash = p.InputsHash
}

// ComputeRankedPairs tabulates every stored ballot of a poll with the
// ranked-pairs method. Candidate positions are the tabulation indices.
// Ballots that no longer rank every candidate exactly once are skipped.
// ID and ComputedAt are left for the caller to fill in.
func ComputeRankedPairs(db querier, pollID string) (models.ResultSnapshot, error) {
	candidates, err := getCandidates(db, pollID)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to get candidates: %w", err)
	}

	ballots, err := getStoredBallots(db, pollID)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to get ballots: %w", err)
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	election, err := tideman.New(ids)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to start tabulation: %w", err)
	}

	counted := make([]string, 0, len(ballots))
	for _, b := range ballots {
		if err := election.Vote(b.Ranking); err != nil {
			slog.Warn("ballot skipped", "poll_id", pollID, "ballot_id", b.ID, "error", err)
			continue
		}
		counted = append(counted, b.ID)
	}

	res := election.Tabulate()
	snapshot := models.ResultSnapshot{
		PollID: pollID,
		Method: models.MethodRankedPairs,
	}
	buildPayload(candidates, res).apply(&snapshot)
	snapshot.InputsHash = hashInputs(counted)

	slog.Info("ranked pairs computed",
		"poll_id", pollID,
		"ballots", res.Ballots,
		"skipped_ballots", len(ballots)-len(counted),
		"pairs", len(res.Pairs),
		"skipped_pairs", len(res.Skipped()),
	)

	return snapshot, nil
}

// buildPayload maps tabulation indices back to candidates.
func buildPayload(candidates []models.Candidate, res *tideman.Result) snapshotPayload {
	wins := make([]int, len(candidates))
	losses := make([]int, len(candidates))

	pairs := make([]models.PairResult, len(res.Pairs))
	for i, p := range res.Pairs {
		w, l := candidates[p.Winner], candidates[p.Loser]
		wins[p.Winner]++
		losses[p.Loser]++
		pairs[i] = models.PairResult{
			WinnerID:    w.ID,
			WinnerLabel: w.Label,
			LoserID:     l.ID,
			LoserLabel:  l.Label,
			For:         p.For,
			Against:     p.Against,
			Margin:      p.Margin(),
			Locked:      p.Locked,
		}
	}

	standings := make([]models.CandidateStanding, len(res.Standings))
	for rank, idx := range res.Standings {
		c := candidates[idx]
		standings[rank] = models.CandidateStanding{
			CandidateID: c.ID,
			Label:       c.Label,
			Rank:        rank + 1,
			Wins:        wins[idx],
			Losses:      losses[idx],
		}
	}

	payload := snapshotPayload{
		Standings:   standings,
		Pairs:       pairs,
		Preferences: res.Preferences,
		BallotCount: res.Ballots,
	}
	if res.HasWinner() {
		id := candidates[res.Winner].ID
		payload.WinnerID = &id
	}
	return payload
}

// hashInputs fingerprints the counted ballots. IDs arrive sorted.
func hashInputs(ballotIDs []string) string {
	h := sha256.New()
	for _, id := range ballotIDs {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// getCandidates returns a poll's candidates in position order.
func getCandidates(db querier, pollID string) ([]models.Candidate, error) {
	rows, err := db.Query(`
		SELECT id, poll_id, label, position
		FROM candidate
		WHERE poll_id = $1
		ORDER BY position
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.PollID, &c.Label, &c.Position); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// getStoredBallots returns every ballot of a poll ordered by ballot ID.
func getStoredBallots(db querier, pollID string) ([]storedBallot, error) {
	rows, err := db.Query(`
		SELECT b.id, r.candidate_id
		FROM ballot b
		JOIN ranking r ON r.ballot_id = b.id
		WHERE b.poll_id = $1
		ORDER BY b.id, r.position
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ballots []storedBallot
	for rows.Next() {
		var ballotID, candidateID string
		if err := rows.Scan(&ballotID, &candidateID); err != nil {
			return nil, err
		}
		if n := len(ballots); n == 0 || ballots[n-1].ID != ballotID {
			ballots = append(ballots, storedBallot{ID: ballotID})
		}
		last := &ballots[len(ballots)-1]
		last.Ranking = append(last.Ranking, candidateID)
	}

	return ballots, rows.Err()
}
