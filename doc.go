// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ranked-pick API server.

ranked-pick is a group polling service. Voters rank every candidate of a
poll, and when the poll closes the ballots are tabulated with Tideman's
ranked-pairs method (see package tideman).

# Starting the Server

The server reads flags, environment variables and an optional .env file:

	DATABASE_URL=ranked-pick.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - POLL_SLUG_SALT (-slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - PUBLIC_BASE_URL (-base-url): Prefix for share URLs

# Architecture

  - tideman: Ranked-pairs tabulation core
  - handlers: HTTP request handlers (polls, voting, results, tally)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Keys, tokens and slugs
  - db: Driver setup and schema creation
  - cliparse: Configuration parsing

The offline tabulator lives in cmd/tideman.
*/
package main
