//go:build darwin

package platform

import (
	"context"
	"fmt"

	touchid "github.com/ansxuman/go-touchid"

	"github.com/eliziario/bioguard/internal/biometrics"
)

// darwinBackend gates Keychain access behind TouchID/FaceID.
type darwinBackend struct{}

func newBackend(cfg Config) (biometrics.Backend, error) {
	return &darwinBackend{}, nil
}

func (b *darwinBackend) Supported() bool {
	// Biometrics ship on all supported macOS hardware; machines without a
	// sensor fall back to the device password through the same dialog.
	return true
}

func (b *darwinBackend) NeedsSetup() bool { return false }

func (b *darwinBackend) CanAutoSetup() bool { return false }

func (b *darwinBackend) Setup(ctx context.Context) error {
	return biometrics.ErrAutoSetupUnavailable
}

func (b *darwinBackend) Authenticate(ctx context.Context, reason string) (bool, error) {
	ok, err := touchid.Auth(touchid.DeviceTypeBiometrics, reason)
	if err != nil {
		// go-touchid reports a declined or failed scan as an error; that is
		// a normal false outcome, not an OS failure.
		return false, nil
	}
	return ok, nil
}

func (b *darwinBackend) GetKey(ctx context.Context, service, key string, half *biometrics.KeyHalf) (string, error) {
	ok, err := b.Authenticate(ctx, "Bioguard needs to verify your identity to release your unlock key")
	if err != nil {
		return "", fmt.Errorf("biometric gate: %w", err)
	}
	if !ok {
		return "", biometrics.ErrAuthenticationFailed
	}

	stored, err := storeGet(service, key)
	if err != nil {
		return "", err
	}
	return openWithHalf(stored, half)
}

func (b *darwinBackend) SetKey(ctx context.Context, service, key, value string, half *biometrics.KeyHalf) error {
	sealed, err := sealWithHalf(value, half)
	if err != nil {
		return err
	}
	return storeSet(service, key, sealed)
}

func (b *darwinBackend) DeleteKey(ctx context.Context, service, key string) error {
	return storeDelete(service, key)
}
