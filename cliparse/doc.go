// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values are resolved in order: CLI flag, environment variable, .env file
(loaded with godotenv from -env-file, default ".env"), built-in default.
Variables already set in the environment are never overwritten by the file.

# Flags and Variables

	-p           PORT             default 3318
	-d           DATABASE_URL     required
	-t           DATABASE_TYPE    sqlite (default) or postgres
	-admin-salt  ADMIN_KEY_SALT   required
	-slug-salt   POLL_SLUG_SALT   required
	-base-url    PUBLIC_BASE_URL  default https://ranked-pick.com
*/
package cliparse
