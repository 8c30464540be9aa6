package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"strings"
	"time"
)

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiKeyPrefix = "scr_"

// HasAPIKey reports whether the user has an active API key.
func (u *User) HasAPIKey() bool {
	return u.APIKeyHash != nil && *u.APIKeyHash != ""
}

// IssueAPIKey generates a new API key, stores its hash on the user and
// returns the raw key. Only the hash is persisted.
func (u *User) IssueAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := apiKeyPrefix + strings.ToLower(apiKeyEncoding.EncodeToString(b))
	hash := HashAPIKey(raw)
	now := time.Now().UTC()
	u.APIKeyHash = &hash
	u.APIKeyPrefix = raw[:12]
	u.APIKeyCreatedAt = &now
	return raw, nil
}

// RevokeAPIKey clears the stored key.
func (u *User) RevokeAPIKey() {
	u.APIKeyHash = nil
	u.APIKeyPrefix = ""
	u.APIKeyCreatedAt = nil
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
