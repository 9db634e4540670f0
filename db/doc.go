// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

	conn, err := db.Open(cliparse.DatabaseSQLite, "ranked-pick.db")
	conn, err := db.Open(cliparse.DatabasePostgres, "postgres://...")

sqlite connections run with foreign keys on, a busy timeout, WAL and
immediate transactions.

# Schema Creation

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: Poll metadata and lifecycle state
  - candidate: Candidates per poll; position is the tabulation index
  - username_claim: Maps usernames to voter tokens
  - ballot: One ballot per voter per poll
  - ranking: One row per candidate per ballot, position 0 first
  - result_snapshot: Immutable ranked-pairs results

# Relationships

	poll 1──* candidate
	poll 1──* username_claim
	poll 1──* ballot
	ballot 1──* ranking *──1 candidate
	poll 1──* result_snapshot

All foreign keys use ON DELETE CASCADE.

# Errors

IsUniqueViolation recognizes unique and primary key violations from both
drivers.
*/
package db
