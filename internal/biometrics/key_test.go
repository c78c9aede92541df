package biometrics

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestParseUnlockKey(t *testing.T) {
	key32 := base64.StdEncoding.EncodeToString(make([]byte, 32))
	key64 := base64.StdEncoding.EncodeToString(make([]byte, 64))

	for _, serialized := range []string{key32, key64} {
		key, err := ParseUnlockKey(serialized)
		if err != nil {
			t.Fatalf("ParseUnlockKey(%q) failed: %v", serialized, err)
		}
		assertEqual(t, serialized, key.String())
	}
}

func TestParseUnlockKeyRejectsBadMaterial(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "!!not-base64!!"},
		{"empty", ""},
		{"wrong length", base64.StdEncoding.EncodeToString(make([]byte, 16))},
		{"almost right length", base64.StdEncoding.EncodeToString(make([]byte, 63))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUnlockKey(tt.input)
			if !errors.Is(err, ErrInvalidKeyMaterial) {
				t.Errorf("Expected ErrInvalidKeyMaterial, got %v", err)
			}
		})
	}
}

func TestUnlockKeyBytes(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	key, err := ParseUnlockKey(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("ParseUnlockKey failed: %v", err)
	}
	if !strings.EqualFold(base64.StdEncoding.EncodeToString(key.Bytes()), key.String()) {
		t.Error("Bytes and String disagree")
	}
}
