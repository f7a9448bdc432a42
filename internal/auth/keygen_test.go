package auth

import (
	"strings"
	"testing"
)

func TestGenerateKey_Format(t *testing.T) {
	t.Parallel()

	d := NewDigester("test-digest-secret-0123456789abcdef")

	generated, err := GenerateKey(d)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if !ValidateKeyFormat(generated.Plaintext) {
		t.Errorf("generated key should match expected format, got: %s", generated.Plaintext)
	}

	// kg_ prefix + 64 hex chars = 256 bits of entropy
	if len(generated.Plaintext) != 3+2*KeySecretBytes {
		t.Errorf("unexpected plaintext length: %d", len(generated.Plaintext))
	}

	if generated.Digest != d.DigestKey(generated.Plaintext) {
		t.Error("returned digest should match the digest of the plaintext")
	}
}

func TestGenerateKey_Uniqueness(t *testing.T) {
	t.Parallel()

	d := NewDigester("test-digest-secret-0123456789abcdef")

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		generated, err := GenerateKey(d)
		if err != nil {
			t.Fatalf("GenerateKey failed: %v", err)
		}
		if seen[generated.Plaintext] {
			t.Fatal("duplicate key generated")
		}
		seen[generated.Plaintext] = true
	}
}

func TestValidateKeyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"empty", "", false},
		{"wrong prefix", "pk_" + strings.Repeat("a", 64), false},
		{"too short", "kg_" + strings.Repeat("a", 63), false},
		{"too long", "kg_" + strings.Repeat("a", 65), false},
		{"uppercase hex", "kg_" + strings.Repeat("A", 64), false},
		{"valid", "kg_" + strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ValidateKeyFormat(tt.key); got != tt.want {
				t.Errorf("ValidateKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
