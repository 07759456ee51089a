package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/storefront/internal/domain/auth"
)

// apiKeyHeader carries the administrative API key.
const apiKeyHeader = "api_key"

// Security authenticates administrative requests via HMAC-SHA256 hashed
// API keys.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security with the given API key repository and HMAC
// pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{apikeys: apikeys, pepper: pepper}
}

// IsAdmin reports whether the request carries a valid administrative API key.
// The key is HMAC-hashed with the pepper, looked up by hash, and compared to
// the stored hash in constant time.
func (s *Security) IsAdmin(r *http.Request) bool {
	key := r.Header.Get(apiKeyHeader)
	if key == "" {
		return false
	}

	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
	if err != nil {
		return false
	}

	storedBytes, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(hash, storedBytes) == 1
}
