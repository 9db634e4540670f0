// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/ranked-pick/models"
	"github.com/danielhkuo/ranked-pick/testutil"
)

// TestFullVotingWorkflow tests the complete end-to-end workflow:
// 1. Create poll
// 2. Add candidates
// 3. Publish poll
// 4. Voters claim usernames
// 5. Voters submit rankings
// 6. Update a ballot
// 7. Close poll
// 8. Verify results
func TestFullVotingWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	pollHandler := NewPollHandler(db, cfg)
	votingHandler := NewVotingHandler(db, cfg)
	resultsHandler := NewResultsHandler(db, cfg)

	// Step 1: Create a poll
	createReq := models.CreatePollRequest{
		Title:       "Integration Test Poll",
		Description: "Testing the full voting workflow",
		CreatorName: "IntegrationTester",
	}
	body, _ := json.Marshal(createReq)
	req := httptest.NewRequest("POST", "/polls", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	pollHandler.CreatePoll(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create poll failed: %d - %s", w.Code, w.Body.String())
	}

	var createResp models.CreatePollResponse
	json.NewDecoder(w.Body).Decode(&createResp)
	pollID := createResp.PollID
	adminKey := createResp.AdminKey

	if pollID == "" || adminKey == "" {
		t.Fatal("Step 1 - Missing poll_id or admin_key")
	}
	t.Logf("Step 1 - Created poll: %s", pollID)

	// Step 2: Add 3 candidates
	labels := []string{"Pizza", "Sushi", "Tacos"}
	ids := make([]string, 0, len(labels))

	for _, label := range labels {
		w := addCandidate(pollHandler, pollID, adminKey, label)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Add candidate '%s' failed: %d - %s", label, w.Code, w.Body.String())
		}

		var resp models.AddCandidateResponse
		json.NewDecoder(w.Body).Decode(&resp)
		ids = append(ids, resp.CandidateID)
	}
	pizza, sushi, tacos := ids[0], ids[1], ids[2]
	t.Logf("Step 2 - Added %d candidates", len(ids))

	// Step 3: Publish poll
	req = httptest.NewRequest("POST", "/polls/"+pollID+"/publish", nil)
	req.SetPathValue("id", pollID)
	req.Header.Set("X-Admin-Key", adminKey)
	w = httptest.NewRecorder()
	pollHandler.PublishPoll(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - Publish failed: %d - %s", w.Code, w.Body.String())
	}

	var publishResp models.PublishPollResponse
	json.NewDecoder(w.Body).Decode(&publishResp)
	shareSlug := publishResp.ShareSlug

	if shareSlug == "" {
		t.Fatal("Step 3 - Missing share_slug")
	}
	t.Logf("Step 3 - Published poll with slug: %s", shareSlug)

	// Step 4: 7 voters claim usernames
	voters := []string{"Alice", "Bob", "Charlie", "Dana", "Eve", "Frank", "Grace"}
	tokens := make([]string, 0, len(voters))

	for _, username := range voters {
		w := claimUsername(votingHandler, shareSlug, username)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 4 - Claim username '%s' failed: %d - %s", username, w.Code, w.Body.String())
		}

		var claimResp models.ClaimUsernameResponse
		json.NewDecoder(w.Body).Decode(&claimResp)
		tokens = append(tokens, claimResp.VoterToken)
	}
	t.Logf("Step 4 - %d voters claimed usernames", len(tokens))

	// Step 5: Everyone starts out ranking Sushi first
	for i, token := range tokens {
		w := submitBallot(votingHandler, shareSlug, token, []string{sushi, pizza, tacos})
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 5 - Submit ballot for voter %d failed: %d - %s", i, w.Code, w.Body.String())
		}
	}
	t.Logf("Step 5 - %d ballots submitted", len(tokens))

	// Step 6: Voters change their minds, leaving a Condorcet cycle
	// 3 x Pizza>Sushi>Tacos, 2 x Sushi>Tacos>Pizza, 2 x Tacos>Pizza>Sushi
	final := [][]string{
		{pizza, sushi, tacos}, {pizza, sushi, tacos}, {pizza, sushi, tacos},
		{sushi, tacos, pizza}, {sushi, tacos, pizza},
		{tacos, pizza, sushi}, {tacos, pizza, sushi},
	}
	for i, ranking := range final {
		w := submitBallot(votingHandler, shareSlug, tokens[i], ranking)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 6 - Update ballot for voter %d failed: %d - %s", i, w.Code, w.Body.String())
		}
	}

	w = getBySlug(resultsHandler.GetBallotCount, "/polls/"+shareSlug+"/ballot-count", shareSlug)
	var countResp models.BallotCountResponse
	testutil.AssertJSON(t, w, &countResp)
	if countResp.BallotCount != len(voters) {
		t.Errorf("Expected %d ballots after updates, got %d", len(voters), countResp.BallotCount)
	}

	// Results stay sealed until the poll closes
	w = getBySlug(resultsHandler.GetResults, "/polls/"+shareSlug+"/results", shareSlug)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	// Step 7: Close the poll
	w = closePoll(pollHandler, pollID, adminKey)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - Close poll failed: %d - %s", w.Code, w.Body.String())
	}

	var closeResp models.ClosePollResponse
	json.NewDecoder(w.Body).Decode(&closeResp)

	if closeResp.ClosedAt.IsZero() {
		t.Error("Step 7 - Expected non-zero closed_at")
	}
	if closeResp.Snapshot.ID == "" {
		t.Error("Step 7 - Expected snapshot ID")
	}
	t.Logf("Step 7 - Poll closed at %v", closeResp.ClosedAt)

	// Step 8: Verify results
	w = getBySlug(resultsHandler.GetResults, "/polls/"+shareSlug+"/results", shareSlug)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 8 - Get results failed: %d - %s", w.Code, w.Body.String())
	}

	var results models.ResultsResponse
	json.NewDecoder(w.Body).Decode(&results)
	snap := results.Snapshot

	if snap.WinnerID == nil || *snap.WinnerID != pizza {
		t.Fatalf("Step 8 - Expected Pizza to win, got %v", snap.WinnerID)
	}
	if results.BallotCount != len(voters) || snap.BallotCount != len(voters) {
		t.Errorf("Step 8 - Expected %d ballots, got %d/%d", len(voters), results.BallotCount, snap.BallotCount)
	}

	var skipped []models.PairResult
	for _, p := range snap.Pairs {
		if !p.Locked {
			skipped = append(skipped, p)
		}
	}
	if len(skipped) != 1 || skipped[0].WinnerLabel != "Tacos" || skipped[0].LoserLabel != "Pizza" {
		t.Errorf("Step 8 - Expected only Tacos over Pizza to be skipped, got %+v", skipped)
	}

	for i, s := range snap.Standings {
		if s.Rank != i+1 {
			t.Errorf("Step 8 - Standing %d has rank %d", i, s.Rank)
		}
		t.Logf("Step 8 - Rank %d: %s (wins=%d, losses=%d)", s.Rank, s.Label, s.Wins, s.Losses)
	}
	if snap.Standings[0].Label != "Pizza" || snap.Standings[1].Label != "Sushi" || snap.Standings[2].Label != "Tacos" {
		t.Errorf("Step 8 - Unexpected finishing order: %+v", snap.Standings)
	}
}

// TestBallotCountAccuracy verifies ballot count is accurate during voting
func TestBallotCountAccuracy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	votingHandler := NewVotingHandler(db, cfg)
	resultsHandler := NewResultsHandler(db, cfg)

	pollID, _, shareSlug := testutil.CreateTestPoll(t, db, cfg, "open")
	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")

	count := func() int {
		w := getBySlug(resultsHandler.GetBallotCount, "/polls/"+shareSlug+"/ballot-count", shareSlug)
		var resp models.BallotCountResponse
		json.NewDecoder(w.Body).Decode(&resp)
		return resp.BallotCount
	}

	if n := count(); n != 0 {
		t.Errorf("Expected 0 ballots initially, got %d", n)
	}

	for i := 1; i <= 5; i++ {
		token := testutil.CreateTestVoter(t, db, pollID, "Voter"+string(rune('0'+i)))
		ranking := []string{a, b}
		if i%2 == 0 {
			ranking = []string{b, a}
		}
		submitBallot(votingHandler, shareSlug, token, ranking)
		// Resubmitting never adds a ballot
		submitBallot(votingHandler, shareSlug, token, ranking)

		if n := count(); n != i {
			t.Errorf("After %d voters, count was %d", i, n)
		}
	}
}

// TestCannotVoteOnClosedPoll verifies voting is blocked after poll closes
func TestCannotVoteOnClosedPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	pollHandler := NewPollHandler(db, cfg)
	votingHandler := NewVotingHandler(db, cfg)

	pollID, adminKey, shareSlug := testutil.CreateTestPoll(t, db, cfg, "open")
	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")
	token := testutil.CreateTestVoter(t, db, pollID, "LateVoter")

	testutil.AssertStatus(t, closePoll(pollHandler, pollID, adminKey), http.StatusOK)

	w := submitBallot(votingHandler, shareSlug, token, []string{a, b})
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = claimUsername(votingHandler, shareSlug, "TooLate")
	testutil.AssertStatus(t, w, http.StatusConflict)
}
