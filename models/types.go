package models

import "time"

// Poll status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Voting method constants
const (
	MethodRankedPairs = "ranked_pairs"
)

// Request types

type CreatePollRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorName string `json:"creator_name"`
}

type AddCandidateRequest struct {
	Label string `json:"label"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// Candidate IDs, most preferred first. Must rank every candidate exactly once.
type SubmitBallotRequest struct {
	Ranking []string `json:"ranking"`
}

// Response types

type CreatePollResponse struct {
	PollID   string `json:"poll_id"`
	AdminKey string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
	Position    int    `json:"position"`
}

type PublishPollResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type ClaimUsernameResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type MyBallotResponse struct {
	BallotID    string      `json:"ballot_id"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Ranking     []Candidate `json:"ranking"`
}

type ClosePollResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type ResultsResponse struct {
	Poll        Poll           `json:"poll"`
	Snapshot    ResultSnapshot `json:"snapshot"`
	BallotCount int            `json:"ballot_count"`
}

type BallotCountResponse struct {
	BallotCount int `json:"ballot_count"`
}

type PollPreviewResponse struct {
	Title          string `json:"title"`
	Status         string `json:"status"`
	CandidateCount int    `json:"candidate_count"`
	BallotCount    int    `json:"ballot_count"`
	Summary        string `json:"summary"`
}

// Domain types

type Poll struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorName     string     `json:"creator_name"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	ClosesAt        *time.Time `json:"closes_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Candidate struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

type PollWithCandidates struct {
	Poll       Poll        `json:"poll"`
	Candidates []Candidate `json:"candidates"`
}

type Ballot struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	VoterToken  string    `json:"-"` // Never expose in JSON
	SubmittedAt time.Time `json:"submitted_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
}

type Ranking struct {
	BallotID    string `json:"ballot_id"`
	CandidateID string `json:"candidate_id"`
	Position    int    `json:"position"`
}

// Ranked-pairs result types

// CandidateStanding is one row of the finishing order. Rank is 1-indexed.
type CandidateStanding struct {
	CandidateID string `json:"candidate_id"`
	Label       string `json:"label"`
	Rank        int    `json:"rank"`
	Wins        int    `json:"wins"`   // head-to-head majorities won
	Losses      int    `json:"losses"` // head-to-head majorities lost
}

// PairResult is one head-to-head majority in the order it was considered for
// locking.
type PairResult struct {
	WinnerID    string `json:"winner_id"`
	WinnerLabel string `json:"winner_label"`
	LoserID     string `json:"loser_id"`
	LoserLabel  string `json:"loser_label"`
	For         int    `json:"for"`
	Against     int    `json:"against"`
	Margin      int    `json:"margin"`
	Locked      bool   `json:"locked"`
}

type ResultSnapshot struct {
	ID          string              `json:"id"`
	PollID      string              `json:"poll_id"`
	Method      string              `json:"method"`
	ComputedAt  time.Time           `json:"computed_at"`
	WinnerID    *string             `json:"winner_id"` // nil when ties leave no unique winner
	Standings   []CandidateStanding `json:"standings"`
	Pairs       []PairResult        `json:"pairs"`
	Preferences [][]int             `json:"preferences"` // indexed by candidate position
	BallotCount int                 `json:"ballot_count"`
	InputsHash  string              `json:"inputs_hash"` // Hash of all counted ballot IDs
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
