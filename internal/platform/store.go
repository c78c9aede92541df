package platform

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/eliziario/bioguard/internal/biometrics"
)

// storeGet reads a blob from the OS secret store and normalizes go-keyring's
// encoding quirks and error values.
func storeGet(service, key string) (string, error) {
	value, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s/%s", biometrics.ErrKeyNotFound, service, key)
		}
		return "", fmt.Errorf("reading from secret store: %w", err)
	}
	return decodeStored(value)
}

func storeSet(service, key, value string) error {
	if err := keyring.Set(service, key, value); err != nil {
		return fmt.Errorf("writing to secret store: %w", err)
	}
	return nil
}

// storeDelete removes a blob. Deleting a missing entry is not an error.
func storeDelete(service, key string) error {
	if err := keyring.Delete(service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting from secret store: %w", err)
	}
	return nil
}

// decodeStored handles values go-keyring base64-encoded on the way in.
func decodeStored(value string) (string, error) {
	if strings.HasPrefix(value, "go-keyring-base64:") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, "go-keyring-base64:"))
		if err != nil {
			return "", fmt.Errorf("decoding stored value: %w", err)
		}
		return string(decoded), nil
	}
	return value, nil
}
