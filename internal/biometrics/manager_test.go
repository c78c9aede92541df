package biometrics

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
)

// Local mocks to avoid an import cycle with testutil
type fakeBackend struct {
	supported    bool
	needsSetup   bool
	canAutoSetup bool
	authResult   bool
	authErr      error
	setupErr     error

	store      map[string]string
	halves     map[string]string
	setupCalls int
	authCalls  int
	getCalls   int
	capCalls   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		supported:  true,
		authResult: true,
		store:      make(map[string]string),
		halves:     make(map[string]string),
	}
}

func (b *fakeBackend) Supported() bool {
	b.capCalls++
	return b.supported
}

func (b *fakeBackend) NeedsSetup() bool {
	b.capCalls++
	return b.needsSetup
}

func (b *fakeBackend) CanAutoSetup() bool {
	b.capCalls++
	return b.canAutoSetup
}

func (b *fakeBackend) Setup(ctx context.Context) error {
	b.setupCalls++
	return b.setupErr
}

func (b *fakeBackend) Authenticate(ctx context.Context, reason string) (bool, error) {
	b.authCalls++
	return b.authResult, b.authErr
}

func (b *fakeBackend) GetKey(ctx context.Context, service, key string, half *KeyHalf) (string, error) {
	b.getCalls++
	stored, ok := b.store[service+"/"+key]
	if !ok {
		return "", ErrKeyNotFound
	}
	// Deterministic combination rule: the blob only opens with the exact
	// half it was bound to, and then yields the original material.
	if boundHalf, bound := b.halves[service+"/"+key]; bound {
		if half == nil || half.Value != boundHalf {
			return "", ErrKeyHalfMismatch
		}
	}
	return stored, nil
}

func (b *fakeBackend) SetKey(ctx context.Context, service, key, value string, half *KeyHalf) error {
	b.store[service+"/"+key] = value
	if half != nil {
		b.halves[service+"/"+key] = half.Value
	}
	return nil
}

func (b *fakeBackend) DeleteKey(ctx context.Context, service, key string) error {
	delete(b.store, service+"/"+key)
	delete(b.halves, service+"/"+key)
	return nil
}

type fakePrefs struct {
	enabled         map[string]bool
	requirePassword map[string]bool
	queries         int
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{
		enabled:         make(map[string]bool),
		requirePassword: make(map[string]bool),
	}
}

func (p *fakePrefs) BiometricUnlockEnabled(ctx context.Context, userID string) (bool, error) {
	p.queries++
	return p.enabled[userID], nil
}

func (p *fakePrefs) RequirePasswordOnStart(ctx context.Context, userID string) (bool, error) {
	p.queries++
	return p.requirePassword[userID], nil
}

func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

func newTestManager() (*Manager, *fakeBackend, *fakePrefs) {
	backend := newFakeBackend()
	prefs := newFakePrefs()
	return NewManager(backend, prefs, "test prompt"), backend, prefs
}

func TestStatusPriorityOrder(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name         string
		supported    bool
		needsSetup   bool
		canAutoSetup bool
		want         CapabilityStatus
	}{
		{"all clear", true, false, false, CapabilityAvailable},
		{"no hardware", false, false, false, CapabilityHardwareUnavailable},
		{"manual setup", true, true, false, CapabilityManualSetupNeeded},
		{"auto setup", true, true, true, CapabilityAutoSetupNeeded},
		// Hardware unavailability dominates setup states.
		{"no hardware and setup needed", false, true, true, CapabilityHardwareUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, backend, _ := newTestManager()
			backend.supported = tt.supported
			backend.needsSetup = tt.needsSetup
			backend.canAutoSetup = tt.canAutoSetup

			assertEqual(t, tt.want, m.Status(ctx))
		})
	}
}

func TestStatusForUserNotEnabledSkipsBackend(t *testing.T) {
	ctx := context.Background()
	m, backend, prefs := newTestManager()
	prefs.enabled["u1"] = false
	// Platform state should not matter; it must not even be queried.
	backend.supported = false

	status, err := m.StatusForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("StatusForUser failed: %v", err)
	}
	assertEqual(t, UserStatusNotEnabledLocally, status)
	assertEqual(t, 0, backend.capCalls)

	// Registering a key half changes nothing for a disabled user.
	m.SetClientKeyHalf("u1", "half")
	status, _ = m.StatusForUser(ctx, "u1")
	assertEqual(t, UserStatusNotEnabledLocally, status)
	assertEqual(t, 0, backend.capCalls)
}

func TestStatusForUserPlatformPropagates(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name         string
		supported    bool
		needsSetup   bool
		canAutoSetup bool
		want         UserStatus
	}{
		{"no hardware", false, false, false, UserStatusHardwareUnavailable},
		{"manual setup", true, true, false, UserStatusManualSetupNeeded},
		{"auto setup", true, true, true, UserStatusAutoSetupNeeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, backend, prefs := newTestManager()
			prefs.enabled["u1"] = true
			backend.supported = tt.supported
			backend.needsSetup = tt.needsSetup
			backend.canAutoSetup = tt.canAutoSetup

			status, err := m.StatusForUser(ctx, "u1")
			if err != nil {
				t.Fatalf("StatusForUser failed: %v", err)
			}
			assertEqual(t, tt.want, status)
		})
	}
}

func TestStatusForUserUnlockNeeded(t *testing.T) {
	ctx := context.Background()
	m, _, prefs := newTestManager()
	prefs.enabled["u1"] = true
	prefs.requirePassword["u1"] = true

	status, err := m.StatusForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("StatusForUser failed: %v", err)
	}
	assertEqual(t, UserStatusUnlockNeeded, status)

	// Supplying the key half moves the user to Available.
	m.SetClientKeyHalf("u1", "half")
	status, _ = m.StatusForUser(ctx, "u1")
	assertEqual(t, UserStatusAvailable, status)
}

func TestStatusForUserAvailableWithoutPasswordRequirement(t *testing.T) {
	ctx := context.Background()
	m, _, prefs := newTestManager()
	prefs.enabled["u1"] = true

	status, err := m.StatusForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("StatusForUser failed: %v", err)
	}
	assertEqual(t, UserStatusAvailable, status)
}

func TestProtectKeyRequiresKeyHalf(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager()

	err := m.ProtectKey(ctx, "u1", "blob")
	if !errors.Is(err, ErrMissingKeyHalf) {
		t.Errorf("Expected ErrMissingKeyHalf, got %v", err)
	}
	assertEqual(t, 0, len(backend.store))

	m.SetClientKeyHalf("u1", "half")
	if err := m.ProtectKey(ctx, "u1", "blob"); err != nil {
		t.Errorf("ProtectKey after registering half failed: %v", err)
	}
	assertEqual(t, 1, len(backend.store))
}

func TestForgetProtectedKeyIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager()
	m.SetClientKeyHalf("u1", "half")
	if err := m.ProtectKey(ctx, "u1", "blob"); err != nil {
		t.Fatalf("ProtectKey failed: %v", err)
	}

	if err := m.ForgetProtectedKey(ctx, "u1"); err != nil {
		t.Errorf("First delete failed: %v", err)
	}
	if err := m.ForgetProtectedKey(ctx, "u1"); err != nil {
		t.Errorf("Second delete should be a no-op, got: %v", err)
	}
}

func TestAutoPromptDefaultsTrue(t *testing.T) {
	m, _, _ := newTestManager()
	assertEqual(t, true, m.AutoPrompt())

	m.SetAutoPrompt(false)
	assertEqual(t, false, m.AutoPrompt())
	assertEqual(t, false, m.AutoPrompt())

	m.SetAutoPrompt(true)
	assertEqual(t, true, m.AutoPrompt())
}

func TestTakeAutoPromptConsumes(t *testing.T) {
	m, _, _ := newTestManager()
	assertEqual(t, true, m.TakeAutoPrompt())
	assertEqual(t, false, m.TakeAutoPrompt())
	assertEqual(t, false, m.AutoPrompt())
}

func TestAuthenticatePassThrough(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager()

	backend.authResult = false
	ok, err := m.Authenticate(ctx)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	assertEqual(t, false, ok)
	assertEqual(t, 1, backend.authCalls)

	backend.authResult = true
	ok, _ = m.Authenticate(ctx)
	assertEqual(t, true, ok)
}

func TestSetupPropagatesError(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager()
	backend.setupErr = ErrAutoSetupUnavailable

	if err := m.Setup(ctx); !errors.Is(err, ErrAutoSetupUnavailable) {
		t.Errorf("Expected ErrAutoSetupUnavailable, got %v", err)
	}
	assertEqual(t, 1, backend.setupCalls)
}

func TestUnlockKeyRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager()

	// 64-byte key material, as the upstream unlock flow would hand us.
	material := base64.StdEncoding.EncodeToString(make([]byte, 64))

	m.SetClientKeyHalf("u1", "h1")
	if err := m.ProtectKey(ctx, "u1", material); err != nil {
		t.Fatalf("ProtectKey failed: %v", err)
	}
	assertEqual(t, "h1", backend.halves[ServiceName+"/"+StorageKeyFor("u1")])

	key, err := m.UnlockKey(ctx, "u1")
	if err != nil {
		t.Fatalf("UnlockKey failed: %v", err)
	}
	assertEqual(t, material, key.String())

	// The blob was bound to h1, so without the half it must not open.
	if _, err := backend.GetKey(ctx, ServiceName, StorageKeyFor("u1"), nil); !errors.Is(err, ErrKeyHalfMismatch) {
		t.Errorf("Expected ErrKeyHalfMismatch without the half, got %v", err)
	}
}

func TestUnlockKeyDecodesMaterial(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager()

	material := base64.StdEncoding.EncodeToString(make([]byte, 32))
	backend.store[ServiceName+"/"+StorageKeyFor("u1")] = material

	key, err := m.UnlockKey(ctx, "u1")
	if err != nil {
		t.Fatalf("UnlockKey failed: %v", err)
	}
	assertEqual(t, 32, len(key.Bytes()))
	assertEqual(t, material, key.String())
}

func TestUnlockKeyErrors(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager()

	// No blob stored at all.
	if _, err := m.UnlockKey(ctx, "u1"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}

	// Blob bound to a half the manager does not have.
	backend.store[ServiceName+"/"+StorageKeyFor("u1")] = "blob"
	backend.halves[ServiceName+"/"+StorageKeyFor("u1")] = "other"
	if _, err := m.UnlockKey(ctx, "u1"); !errors.Is(err, ErrKeyHalfMismatch) {
		t.Errorf("Expected ErrKeyHalfMismatch, got %v", err)
	}

	// Retrieval succeeds but the material is garbage.
	delete(backend.halves, ServiceName+"/"+StorageKeyFor("u1"))
	backend.store[ServiceName+"/"+StorageKeyFor("u1")] = "not a key"
	if _, err := m.UnlockKey(ctx, "u1"); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("Expected ErrInvalidKeyMaterial, got %v", err)
	}
}

func TestSetClientKeyHalfLastWriteWins(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager()

	m.SetClientKeyHalf("u1", "first")
	m.SetClientKeyHalf("u1", "second")
	if err := m.ProtectKey(ctx, "u1", "blob"); err != nil {
		t.Fatalf("ProtectKey failed: %v", err)
	}

	assertEqual(t, "second", backend.halves[ServiceName+"/"+StorageKeyFor("u1")])
}

func TestConcurrentKeyHalfAccess(t *testing.T) {
	ctx := context.Background()
	m, _, prefs := newTestManager()
	prefs.enabled["u1"] = true
	prefs.enabled["u2"] = true
	prefs.requirePassword["u1"] = true
	prefs.requirePassword["u2"] = true

	done := make(chan bool, 3)
	go func() {
		m.SetClientKeyHalf("u1", "h1")
		done <- true
	}()
	go func() {
		m.SetClientKeyHalf("u2", "h2")
		done <- true
	}()
	go func() {
		_, _ = m.StatusForUser(ctx, "u1")
		done <- true
	}()
	for i := 0; i < 3; i++ {
		<-done
	}

	status, _ := m.StatusForUser(ctx, "u1")
	assertEqual(t, UserStatusAvailable, status)
	status, _ = m.StatusForUser(ctx, "u2")
	assertEqual(t, UserStatusAvailable, status)
}

func TestStorageKeyConvention(t *testing.T) {
	assertEqual(t, "u1_user_biometric", StorageKeyFor("u1"))
}
