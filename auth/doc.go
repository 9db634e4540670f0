// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, secrets and keyed hashes.

# Keyring

A Keyring holds the two server salts and derives everything that must be
reproducible from a poll ID:

	keys := auth.KeyringFromConfig(cfg)
	adminKey := keys.AdminKey(pollID)
	err := keys.CheckAdminKey(pollID, adminKey)
	slug := keys.ShareSlug(pollID)

Admin keys are HMAC-SHA256, URL-safe base64 without padding. Share slugs are
the first 8 bytes of an HMAC, base62 encoded. Neither is stored.

# Voter Tokens

	token, err := auth.GenerateVoterToken()

24 random bytes, 32 URL-safe characters.

# IDs

	id := auth.NewID()

Random UUIDs for every database row.
*/
package auth
