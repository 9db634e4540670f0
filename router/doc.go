// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ranked-pick API.

	mux := router.NewRouter(db, cfg)

# Endpoints

Poll management (admin, requires X-Admin-Key):

	POST /polls                 - Create poll
	GET  /polls/{id}/admin      - Get poll details
	POST /polls/{id}/candidates - Add candidate (draft only)
	POST /polls/{id}/publish    - Open for voting
	POST /polls/{id}/close      - Tabulate and seal results

Voting (public, uses share slug; ballots require X-Voter-Token):

	POST /polls/{slug}/claim-username - Claim voter identity
	POST /polls/{slug}/ballots        - Submit/update ranking
	GET  /polls/{slug}/my-ballot      - Current ranking

Results (public):

	GET /polls/{slug}              - Poll info and candidates
	GET /polls/{slug}/results      - Final results (closed only)
	GET /polls/{slug}/ballot-count - Vote count
	GET /polls/{slug}/preview      - Compact preview data

Plus GET /health and GET /.
*/
package router
