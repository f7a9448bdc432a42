package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Digester computes deterministic keyed digests of API key material.
// Unlike password hashing, key digests must be deterministic because
// keys are looked up by digest equality; the HMAC secret keeps a stolen
// database from being brute-forced offline against raw SHA256.
type Digester struct {
	secret []byte
}

// NewDigester creates a Digester keyed with the given process-wide secret.
func NewDigester(secret string) *Digester {
	return &Digester{secret: []byte(secret)}
}

// DigestKey returns the HMAC-SHA256 digest of a plaintext API key,
// hex encoded. Same input always yields the same digest.
func (d *Digester) DigestKey(plaintext string) string {
	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}
