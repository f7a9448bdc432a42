package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Key format: kg_{secret}
// Example: kg_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	// KeySecretBytes is the raw entropy per key: 32 bytes = 256 bits.
	KeySecretBytes = 32
)

// keyFormatRegex validates the plaintext key format (hex is URL-safe).
var keyFormatRegex = regexp.MustCompile(`^kg_[a-f0-9]{64}$`)

// GeneratedKey contains the parts of a newly generated API key.
type GeneratedKey struct {
	Plaintext string // Full key (show once only)
	Digest    string // Keyed digest for storage and lookup
}

// GenerateKey creates a new API key with 256 bits of random secret
// material and computes its storage digest. The plaintext is
// structurally unrelated to the digest.
func GenerateKey(d *Digester) (*GeneratedKey, error) {
	secret := make([]byte, KeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("kg_%s", hex.EncodeToString(secret))

	return &GeneratedKey{
		Plaintext: plaintext,
		Digest:    d.DigestKey(plaintext),
	}, nil
}

// ValidateKeyFormat checks if a presented key matches the expected format.
// Cheap pre-filter before any digest computation or store access.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
