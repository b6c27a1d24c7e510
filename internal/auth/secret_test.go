package auth

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	b, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}

	if len(a) != 2*SecretBytes {
		t.Fatalf("len = %d, want %d", len(a), 2*SecretBytes)
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Fatalf("not hex: %v", err)
	}
	if a == b {
		t.Fatal("two secrets must differ")
	}
}

func TestGenerateSecret_RandError(t *testing.T) {
	orig := randRead
	t.Cleanup(func() { randRead = orig })
	randRead = func(b []byte) (int, error) { return 0, errors.New("no entropy") }

	if _, err := GenerateSecret(); err == nil {
		t.Fatal("expected error")
	}
}
