// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/ranked-pick/auth"
	"github.com/danielhkuo/ranked-pick/models"
	"github.com/danielhkuo/ranked-pick/testutil"
	"github.com/danielhkuo/ranked-pick/tideman"
)

func TestCreatePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	keys := auth.KeyringFromConfig(cfg)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.CreatePollResponse)
	}{
		{
			name: "valid poll creation",
			requestBody: models.CreatePollRequest{
				Title:       "Test Poll",
				Description: "Test description",
				CreatorName: "Alice",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreatePollResponse) {
				if resp.PollID == "" {
					t.Error("Expected non-empty poll_id")
				}
				if resp.AdminKey != keys.AdminKey(resp.PollID) {
					t.Error("Admin key does not match expected value")
				}

				var status, method string
				err := db.QueryRow("SELECT status, method FROM poll WHERE id = $1", resp.PollID).Scan(&status, &method)
				if err != nil {
					t.Fatalf("Failed to query poll: %v", err)
				}
				if status != models.StatusDraft {
					t.Errorf("Expected status 'draft', got '%s'", status)
				}
				if method != models.MethodRankedPairs {
					t.Errorf("Expected method '%s', got '%s'", models.MethodRankedPairs, method)
				}
			},
		},
		{
			name: "missing title",
			requestBody: models.CreatePollRequest{
				Description: "Test description",
				CreatorName: "Alice",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing creator name",
			requestBody: models.CreatePollRequest{
				Title:       "Test Poll",
				Description: "Test description",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			var err error

			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("Failed to marshal request body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/polls", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreatePoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var resp models.CreatePollResponse
				testutil.AssertJSON(t, w, &resp)
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func addCandidate(handler *PollHandler, pollID, adminKey, label string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/candidates",
		models.AddCandidateRequest{Label: label},
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	handler.AddCandidate(w, req)
	return w
}

func TestAddCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	keys := auth.KeyringFromConfig(cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "draft")
	testutil.AddTestCandidate(t, db, pollID, "Existing")

	tests := []struct {
		name           string
		pollID         string
		adminKey       string
		label          string
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.AddCandidateResponse)
	}{
		{
			name:           "valid candidate",
			pollID:         pollID,
			adminKey:       adminKey,
			label:          "  Alice  ",
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.AddCandidateResponse) {
				if resp.CandidateID == "" {
					t.Error("Expected non-empty candidate_id")
				}
				if resp.Position != 1 {
					t.Errorf("Expected position 1, got %d", resp.Position)
				}

				var label string
				err := db.QueryRow("SELECT label FROM candidate WHERE id = $1", resp.CandidateID).Scan(&label)
				if err != nil {
					t.Fatalf("Failed to query candidate: %v", err)
				}
				if label != "Alice" {
					t.Errorf("Expected trimmed label 'Alice', got '%s'", label)
				}
			},
		},
		{
			name:           "missing label",
			pollID:         pollID,
			adminKey:       adminKey,
			label:          "   ",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "label too long",
			pollID:         pollID,
			adminKey:       adminKey,
			label:          strings.Repeat("x", maxLabelLength+1),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "duplicate label",
			pollID:         pollID,
			adminKey:       adminKey,
			label:          "Existing",
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid admin key",
			pollID:         pollID,
			adminKey:       "invalid-key",
			label:          "Bob",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing admin key",
			pollID:         pollID,
			adminKey:       "",
			label:          "Carol",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "poll not found",
			pollID:         "nonexistent",
			adminKey:       keys.AdminKey("nonexistent"),
			label:          "Dave",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := addCandidate(handler, tt.pollID, tt.adminKey, tt.label)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var resp models.AddCandidateResponse
				testutil.AssertJSON(t, w, &resp)
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestAddCandidateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "draft")

	for i := 0; i < tideman.MaxCandidates; i++ {
		w := addCandidate(handler, pollID, adminKey, fmt.Sprintf("Candidate %d", i))
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.AddCandidateResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Position != i {
			t.Errorf("Expected position %d, got %d", i, resp.Position)
		}
	}

	w := addCandidate(handler, pollID, adminKey, "One too many")
	testutil.AssertStatus(t, w, http.StatusConflict)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM candidate WHERE poll_id = $1", pollID).Scan(&count); err != nil {
		t.Fatalf("Failed to count candidates: %v", err)
	}
	if count != tideman.MaxCandidates {
		t.Errorf("Expected %d candidates, got %d", tideman.MaxCandidates, count)
	}
}

func TestAddCandidateToNonDraftPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	for _, status := range []string{"open", "closed"} {
		t.Run(status, func(t *testing.T) {
			pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, status)
			w := addCandidate(handler, pollID, adminKey, "Late entry")
			testutil.AssertStatus(t, w, http.StatusConflict)
		})
	}
}

func TestPublishPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	keys := auth.KeyringFromConfig(cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "draft")
	testutil.AddTestCandidate(t, db, pollID, "Alice")
	testutil.AddTestCandidate(t, db, pollID, "Bob")

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/publish", nil,
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()

	handler.PublishPoll(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PublishPollResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.ShareSlug != keys.ShareSlug(pollID) {
		t.Errorf("Expected share slug %s, got %s", keys.ShareSlug(pollID), resp.ShareSlug)
	}
	if resp.ShareURL != cfg.PublicBaseURL+"/polls/"+resp.ShareSlug {
		t.Errorf("Unexpected share URL %s", resp.ShareURL)
	}

	var status string
	if err := db.QueryRow("SELECT status FROM poll WHERE id = $1", pollID).Scan(&status); err != nil {
		t.Fatalf("Failed to query poll: %v", err)
	}
	if status != models.StatusOpen {
		t.Errorf("Expected status 'open', got '%s'", status)
	}

	// Publishing twice is a conflict
	req = testutil.MakeRequest("POST", "/polls/"+pollID+"/publish", nil,
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	handler.PublishPoll(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestPublishPollWithInsufficientCandidates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "draft")
	testutil.AddTestCandidate(t, db, pollID, "Only one")

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/publish", nil,
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()

	handler.PublishPoll(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetPollAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "draft")
	labels := []string{"Charlie", "Alice", "Bob"}
	for _, label := range labels {
		testutil.AddTestCandidate(t, db, pollID, label)
	}

	req := testutil.MakeRequest("GET", "/polls/"+pollID+"/admin", nil,
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()

	handler.GetPollAdmin(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PollWithCandidates
	testutil.AssertJSON(t, w, &resp)

	if resp.Poll.ID != pollID {
		t.Errorf("Expected poll %s, got %s", pollID, resp.Poll.ID)
	}
	if len(resp.Candidates) != len(labels) {
		t.Fatalf("Expected %d candidates, got %d", len(labels), len(resp.Candidates))
	}
	for i, c := range resp.Candidates {
		if c.Label != labels[i] || c.Position != i {
			t.Errorf("Candidate %d: got %s at position %d", i, c.Label, c.Position)
		}
	}
}

func closePoll(handler *PollHandler, pollID, adminKey string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/close", nil,
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	handler.ClosePoll(w, req)
	return w
}

func TestClosePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "open")
	alice := testutil.AddTestCandidate(t, db, pollID, "Alice")
	bob := testutil.AddTestCandidate(t, db, pollID, "Bob")
	charlie := testutil.AddTestCandidate(t, db, pollID, "Charlie")

	for i := 0; i < 3; i++ {
		voter := testutil.CreateTestVoter(t, db, pollID, fmt.Sprintf("first%d", i))
		testutil.SubmitTestBallot(t, db, pollID, voter, []string{alice, bob, charlie})
	}
	for i := 0; i < 2; i++ {
		voter := testutil.CreateTestVoter(t, db, pollID, fmt.Sprintf("second%d", i))
		testutil.SubmitTestBallot(t, db, pollID, voter, []string{bob, charlie, alice})
	}

	w := closePoll(handler, pollID, adminKey)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ClosePollResponse
	testutil.AssertJSON(t, w, &resp)

	snap := resp.Snapshot
	if snap.Method != models.MethodRankedPairs {
		t.Errorf("Expected method %s, got %s", models.MethodRankedPairs, snap.Method)
	}
	if snap.WinnerID == nil || *snap.WinnerID != alice {
		t.Fatalf("Expected Alice to win, got %v", snap.WinnerID)
	}
	if snap.BallotCount != 5 {
		t.Errorf("Expected 5 ballots, got %d", snap.BallotCount)
	}
	if snap.InputsHash == "" {
		t.Error("Expected inputs hash")
	}

	// Bob over Charlie by 5 is the strongest pair and is locked first
	if len(snap.Pairs) != 3 {
		t.Fatalf("Expected 3 pairs, got %d", len(snap.Pairs))
	}
	first := snap.Pairs[0]
	if first.WinnerID != bob || first.LoserID != charlie || first.Margin != 5 || !first.Locked {
		t.Errorf("Unexpected strongest pair: %+v", first)
	}

	wantOrder := []string{"Alice", "Bob", "Charlie"}
	for i, s := range snap.Standings {
		if s.Label != wantOrder[i] || s.Rank != i+1 {
			t.Errorf("Standing %d: got %s rank %d", i, s.Label, s.Rank)
		}
	}
	if snap.Standings[0].Wins != 2 || snap.Standings[2].Losses != 2 {
		t.Errorf("Unexpected win/loss counts: %+v", snap.Standings)
	}

	// Poll is closed and points at the stored snapshot
	var status string
	var snapshotID *string
	err := db.QueryRow("SELECT status, final_snapshot_id FROM poll WHERE id = $1", pollID).Scan(&status, &snapshotID)
	if err != nil {
		t.Fatalf("Failed to query poll: %v", err)
	}
	if status != models.StatusClosed {
		t.Errorf("Expected status 'closed', got '%s'", status)
	}
	if snapshotID == nil || *snapshotID != snap.ID {
		t.Errorf("Expected final_snapshot_id %s, got %v", snap.ID, snapshotID)
	}

	// Closing again is a conflict
	w = closePoll(handler, pollID, adminKey)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestClosePollWithoutBallots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "open")
	testutil.AddTestCandidate(t, db, pollID, "Alice")
	testutil.AddTestCandidate(t, db, pollID, "Bob")

	w := closePoll(handler, pollID, adminKey)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ClosePollResponse
	testutil.AssertJSON(t, w, &resp)

	// Every pairing is tied, so nobody is a unique winner
	if resp.Snapshot.WinnerID != nil {
		t.Errorf("Expected no winner, got %s", *resp.Snapshot.WinnerID)
	}
	if len(resp.Snapshot.Pairs) != 0 {
		t.Errorf("Expected no pairs, got %d", len(resp.Snapshot.Pairs))
	}
	if len(resp.Snapshot.Standings) != 2 {
		t.Errorf("Expected 2 standings, got %d", len(resp.Snapshot.Standings))
	}
}

func TestCloseDraftPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, "draft")

	w := closePoll(handler, pollID, adminKey)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = closePoll(handler, pollID, "wrong-key")
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}
