package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/eliziario/bioguard/internal/biometrics"
)

// TempDir creates a temporary directory for tests
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "bioguard-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

func AssertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Error("Expected an error, got nil")
	}
}

// MockBackend is an in-memory biometrics.Backend for tests. Capability
// answers and the authentication outcome are settable; key storage is a
// plain map. When a key half accompanies a SetKey, the stored value is a
// deterministic function of the value and the half so tests can verify the
// combination round-trip.
type MockBackend struct {
	SupportedValue    bool
	NeedsSetupValue   bool
	CanAutoSetupValue bool
	AuthResult        bool
	AuthErr           error
	SetupErr          error

	mu     sync.Mutex
	store  map[string]string
	halves map[string]string

	SetupCalls int
	AuthCalls  int
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		SupportedValue: true,
		AuthResult:     true,
		store:          make(map[string]string),
		halves:         make(map[string]string),
	}
}

func (b *MockBackend) Supported() bool    { return b.SupportedValue }
func (b *MockBackend) NeedsSetup() bool   { return b.NeedsSetupValue }
func (b *MockBackend) CanAutoSetup() bool { return b.CanAutoSetupValue }

func (b *MockBackend) Setup(ctx context.Context) error {
	b.SetupCalls++
	return b.SetupErr
}

func (b *MockBackend) Authenticate(ctx context.Context, reason string) (bool, error) {
	b.AuthCalls++
	return b.AuthResult, b.AuthErr
}

func (b *MockBackend) GetKey(ctx context.Context, service, key string, half *biometrics.KeyHalf) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := service + "/" + key
	stored, ok := b.store[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", biometrics.ErrKeyNotFound, id)
	}
	if storedHalf, bound := b.halves[id]; bound {
		if half == nil || half.Value != storedHalf {
			return "", biometrics.ErrKeyHalfMismatch
		}
	}
	return stored, nil
}

func (b *MockBackend) SetKey(ctx context.Context, service, key, value string, half *biometrics.KeyHalf) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := service + "/" + key
	b.store[id] = value
	if half != nil {
		b.halves[id] = half.Value
	} else {
		delete(b.halves, id)
	}
	return nil
}

func (b *MockBackend) DeleteKey(ctx context.Context, service, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := service + "/" + key
	delete(b.store, id)
	delete(b.halves, id)
	return nil
}

// MockPrefs is an in-memory biometrics.PreferenceStore.
type MockPrefs struct {
	Enabled         map[string]bool
	RequirePassword map[string]bool
	Err             error

	Queries int
}

func NewMockPrefs() *MockPrefs {
	return &MockPrefs{
		Enabled:         make(map[string]bool),
		RequirePassword: make(map[string]bool),
	}
}

func (p *MockPrefs) BiometricUnlockEnabled(ctx context.Context, userID string) (bool, error) {
	p.Queries++
	return p.Enabled[userID], p.Err
}

func (p *MockPrefs) RequirePasswordOnStart(ctx context.Context, userID string) (bool, error) {
	p.Queries++
	return p.RequirePassword[userID], p.Err
}
