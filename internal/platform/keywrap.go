package platform

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/eliziario/bioguard/internal/biometrics"
)

// Values stored with a client key half are sealed with AES-256-GCM under a
// key derived from the half. The on-store form carries a fixed prefix so a
// reader can tell whether a half is required to open it.
const sealedPrefix = "bioguard-sealed:"

// sealWithHalf binds value to the client key half before it reaches the OS
// secret store. A nil half stores the value as-is: the OS store's own
// protection is then the only guard.
func sealWithHalf(value string, half *biometrics.KeyHalf) (string, error) {
	if half == nil {
		return value, nil
	}

	block, err := aes.NewCipher(halfKey(half))
	if err != nil {
		return "", fmt.Errorf("sealing key material: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("sealing key material: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sealing key material: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(value), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// openWithHalf reverses sealWithHalf. A stored value carrying the sealed
// prefix requires the correct half; an absent or wrong half fails with
// ErrKeyHalfMismatch. Unsealed values pass through untouched.
func openWithHalf(stored string, half *biometrics.KeyHalf) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if half == nil {
		return "", biometrics.ErrKeyHalfMismatch
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: malformed sealed blob", biometrics.ErrKeyHalfMismatch)
	}

	block, err := aes.NewCipher(halfKey(half))
	if err != nil {
		return "", fmt.Errorf("opening key material: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("opening key material: %w", err)
	}
	if len(sealed) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: malformed sealed blob", biometrics.ErrKeyHalfMismatch)
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// GCM authentication failure: the half does not match the blob.
		return "", biometrics.ErrKeyHalfMismatch
	}
	return string(plain), nil
}

func halfKey(half *biometrics.KeyHalf) []byte {
	sum := sha256.Sum256([]byte(half.Value))
	return sum[:]
}
