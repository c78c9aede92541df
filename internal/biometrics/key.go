package biometrics

import (
	"encoding/base64"
	"fmt"
)

// UnlockKey is the symmetric key released by a successful biometric unlock.
// The serialized form is standard base64 of either 32 bytes (encryption key
// only) or 64 bytes (encryption key followed by MAC key).
type UnlockKey struct {
	material []byte
}

// ParseUnlockKey decodes serialized key material. Anything that is not valid
// base64 of 32 or 64 bytes fails with ErrInvalidKeyMaterial.
func ParseUnlockKey(s string) (*UnlockKey, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	if len(raw) != 32 && len(raw) != 64 {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidKeyMaterial, len(raw))
	}
	return &UnlockKey{material: raw}, nil
}

// Bytes returns the raw key material.
func (k *UnlockKey) Bytes() []byte {
	return k.material
}

// String returns the serialized base64 form.
func (k *UnlockKey) String() string {
	return base64.StdEncoding.EncodeToString(k.material)
}
