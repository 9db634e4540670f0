// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/danielhkuo/ranked-pick/cliparse"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
)

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewID returns a random UUID for polls, candidates, ballots and snapshots.
func NewID() string {
	return uuid.NewString()
}

// GenerateVoterToken creates a random secure token for a voter.
// The token is the voter's only credential for updating their ballot.
func GenerateVoterToken() (string, error) {
	b := make([]byte, 24) // 192 bits
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Keyring derives every poll secret from the two configured salts.
type Keyring struct {
	adminSalt []byte
	slugSalt  []byte
}

func NewKeyring(adminSalt, slugSalt string) Keyring {
	return Keyring{adminSalt: []byte(adminSalt), slugSalt: []byte(slugSalt)}
}

func KeyringFromConfig(cfg cliparse.Config) Keyring {
	return NewKeyring(cfg.AdminKeySalt, cfg.PollSlugSalt)
}

// AdminKey is deterministic, so it never has to be stored.
func (k Keyring) AdminKey(pollID string) string {
	return base64.RawURLEncoding.EncodeToString(mac(k.adminSalt, pollID))
}

// CheckAdminKey compares in constant time.
func (k Keyring) CheckAdminKey(pollID, adminKey string) error {
	if !hmac.Equal([]byte(adminKey), []byte(k.AdminKey(pollID))) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ShareSlug is a short base62 code derived from the poll ID.
func (k Keyring) ShareSlug(pollID string) string {
	return base62Encode(mac(k.slugSalt, pollID)[:8])
}

// HashIP keeps 64 bits of a salted hash, enough to spot repeat submitters
// without storing addresses.
func (k Keyring) HashIP(ip string) string {
	return hex.EncodeToString(mac(k.adminSalt, ip)[:8])
}

func mac(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}

// base62Encode reads up to 8 bytes big-endian and writes them in base62.
func base62Encode(data []byte) string {
	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}
	if num == 0 {
		return "0"
	}

	out := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		out = append(out, base62Chars[num%62])
		num /= 62
	}
	slices.Reverse(out)
	return string(out)
}
