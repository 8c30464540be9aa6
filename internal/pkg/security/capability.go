package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInvalidCapabilities = errors.New("invalid capability token")

// CapabilitySet is the bounded, ordered set of private image ids a session may
// view without knowing the category secret. When full, the oldest id is
// evicted.
type CapabilitySet struct {
	ids   []string
	limit int
}

// NewCapabilitySet creates an empty set holding at most limit ids.
func NewCapabilitySet(limit int) *CapabilitySet {
	if limit <= 0 {
		limit = 1
	}
	return &CapabilitySet{limit: limit}
}

// Add grants id. Re-adding an id refreshes it so it is evicted last.
func (s *CapabilitySet) Add(id string) {
	if id == "" {
		return
	}
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
	s.ids = append(s.ids, id)
	if over := len(s.ids) - s.limit; over > 0 {
		s.ids = slices.Delete(s.ids, 0, over)
	}
}

// Has reports whether id is granted.
func (s *CapabilitySet) Has(id string) bool {
	return id != "" && slices.Contains(s.ids, id)
}

// IDs returns the granted ids, oldest first.
func (s *CapabilitySet) IDs() []string {
	return slices.Clone(s.ids)
}

func (s *CapabilitySet) Len() int { return len(s.ids) }

// Encode serialises the set as payload.signature, both base64url.
func (s *CapabilitySet) Encode(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for capability signing")
	}
	payload, err := json.Marshal(s.ids)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s",
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString(sign(payload, secret))), nil
}

// DecodeCapabilities verifies and parses a token produced by Encode. An empty
// token yields an empty set.
func DecodeCapabilities(token, secret string, limit int) (*CapabilitySet, error) {
	set := NewCapabilitySet(limit)
	if token == "" {
		return set, nil
	}
	if secret == "" {
		return set, errors.New("secret is required for capability verification")
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return set, ErrInvalidCapabilities
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return set, ErrInvalidCapabilities
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return set, ErrInvalidCapabilities
	}
	if !hmac.Equal(sig, sign(payload, secret)) {
		return set, ErrInvalidCapabilities
	}
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		return set, ErrInvalidCapabilities
	}
	for _, id := range ids {
		set.Add(id)
	}
	return set, nil
}

func sign(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}
