//go:build windows

package platform

import (
	"context"

	"github.com/eliziario/bioguard/internal/biometrics"
)

// windowsBackend stores blobs in the Windows Credential Manager. The vault
// enforces user presence on access under a Windows Hello policy, so
// Authenticate reports success and the real gate happens at retrieval time.
type windowsBackend struct{}

func newBackend(cfg Config) (biometrics.Backend, error) {
	return &windowsBackend{}, nil
}

func (b *windowsBackend) Supported() bool { return true }

func (b *windowsBackend) NeedsSetup() bool { return false }

func (b *windowsBackend) CanAutoSetup() bool { return false }

func (b *windowsBackend) Setup(ctx context.Context) error {
	return biometrics.ErrAutoSetupUnavailable
}

func (b *windowsBackend) Authenticate(ctx context.Context, reason string) (bool, error) {
	// TODO: call the WinRT UserConsentVerifier for an explicit Hello prompt
	// instead of deferring to the Credential Manager's own gate.
	return true, nil
}

func (b *windowsBackend) GetKey(ctx context.Context, service, key string, half *biometrics.KeyHalf) (string, error) {
	stored, err := storeGet(service, key)
	if err != nil {
		return "", err
	}
	return openWithHalf(stored, half)
}

func (b *windowsBackend) SetKey(ctx context.Context, service, key, value string, half *biometrics.KeyHalf) error {
	sealed, err := sealWithHalf(value, half)
	if err != nil {
		return err
	}
	return storeSet(service, key, sealed)
}

func (b *windowsBackend) DeleteKey(ctx context.Context, service, key string) error {
	return storeDelete(service, key)
}
