package biometrics

import (
	"context"
	"fmt"
	"sync"
)

// PreferenceStore provides the per-user persisted unlock flags the manager
// consults. Reads are side-effect free and may hit disk.
type PreferenceStore interface {
	// BiometricUnlockEnabled reports whether the user turned biometric
	// unlock on locally.
	BiometricUnlockEnabled(ctx context.Context, userID string) (bool, error)

	// RequirePasswordOnStart reports whether the user requires the client
	// key half to be re-established at process start.
	RequirePasswordOnStart(ctx context.Context, userID string) (bool, error)
}

// Manager orchestrates biometric unlock: it classifies platform capability,
// classifies per-user eligibility, mediates authentication and gates
// read/write/delete of the protected key blob behind the client key half.
type Manager struct {
	backend Backend
	prefs   PreferenceStore
	reason  string

	mu         sync.RWMutex
	keyHalves  map[string]string
	autoPrompt bool
}

// NewManager builds a manager over the selected platform backend and the
// application's preference store. The auto-prompt flag starts true.
func NewManager(backend Backend, prefs PreferenceStore, promptReason string) *Manager {
	return &Manager{
		backend:    backend,
		prefs:      prefs,
		reason:     promptReason,
		keyHalves:  make(map[string]string),
		autoPrompt: true,
	}
}

// Status classifies platform-level biometric readiness. Hardware
// unavailability dominates setup states; the setup states are only reachable
// on a supported platform.
func (m *Manager) Status(ctx context.Context) CapabilityStatus {
	if !m.backend.Supported() {
		return CapabilityHardwareUnavailable
	}
	if m.backend.NeedsSetup() {
		if m.backend.CanAutoSetup() {
			return CapabilityAutoSetupNeeded
		}
		return CapabilityManualSetupNeeded
	}
	return CapabilityAvailable
}

// StatusForUser layers per-user gating on top of the platform status. Local
// enablement is checked before any backend call, so a user with the feature
// off never triggers OS interaction. Platform-level problems surface before
// key-half gating.
func (m *Manager) StatusForUser(ctx context.Context, userID string) (UserStatus, error) {
	enabled, err := m.prefs.BiometricUnlockEnabled(ctx, userID)
	if err != nil {
		return UserStatusNotEnabledLocally, fmt.Errorf("reading biometric unlock preference: %w", err)
	}
	if !enabled {
		return UserStatusNotEnabledLocally, nil
	}

	if platform := m.Status(ctx); platform != CapabilityAvailable {
		return userStatusFor(platform), nil
	}

	required, err := m.prefs.RequirePasswordOnStart(ctx, userID)
	if err != nil {
		return UserStatusNotEnabledLocally, fmt.Errorf("reading password-on-start preference: %w", err)
	}
	if required && !m.hasKeyHalf(userID) {
		return UserStatusUnlockNeeded, nil
	}
	return UserStatusAvailable, nil
}

// Authenticate runs one OS-mediated biometric check and returns its result
// unchanged. No manager state is consulted or mutated.
func (m *Manager) Authenticate(ctx context.Context) (bool, error) {
	return m.backend.Authenticate(ctx, m.reason)
}

// Setup performs the platform's automatic biometric configuration.
func (m *Manager) Setup(ctx context.Context) error {
	return m.backend.Setup(ctx)
}

// SetClientKeyHalf registers the in-memory client key half for a user,
// overwriting any previous value (last write wins). The value's shape is not
// validated. Key halves live only in process memory and vanish at exit.
func (m *Manager) SetClientKeyHalf(userID, value string) {
	m.mu.Lock()
	m.keyHalves[userID] = value
	m.mu.Unlock()
}

// UnlockKey retrieves the user's protected key blob through the backend and
// decodes it into an UnlockKey. The registered key half is passed through
// when present; its absence degrades usability, not integrity, so retrieval
// is attempted either way.
func (m *Manager) UnlockKey(ctx context.Context, userID string) (*UnlockKey, error) {
	serialized, err := m.backend.GetKey(ctx, ServiceName, StorageKeyFor(userID), m.keyHalf(userID))
	if err != nil {
		return nil, err
	}
	return ParseUnlockKey(serialized)
}

// ProtectKey stores serialized unlock key material for the user, bound to the
// registered client key half. Fails closed with ErrMissingKeyHalf when no
// half is registered: storing without the binding would silently weaken the
// protection guarantee.
func (m *Manager) ProtectKey(ctx context.Context, userID, value string) error {
	half := m.keyHalf(userID)
	if half == nil {
		return fmt.Errorf("protecting key for %s: %w", userID, ErrMissingKeyHalf)
	}
	return m.backend.SetKey(ctx, ServiceName, StorageKeyFor(userID), value, half)
}

// ForgetProtectedKey removes the user's protected key blob. Idempotent.
func (m *Manager) ForgetProtectedKey(ctx context.Context, userID string) error {
	return m.backend.DeleteKey(ctx, ServiceName, StorageKeyFor(userID))
}

// SetAutoPrompt sets the process-wide auto-prompt intent.
func (m *Manager) SetAutoPrompt(v bool) {
	m.mu.Lock()
	m.autoPrompt = v
	m.mu.Unlock()
}

// AutoPrompt reports the current auto-prompt intent. Callers that consume a
// true value to trigger a prompt must immediately SetAutoPrompt(false), or
// use TakeAutoPrompt, to avoid re-prompting on unrelated state
// re-evaluations such as window restore or account switch.
func (m *Manager) AutoPrompt() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.autoPrompt
}

// TakeAutoPrompt atomically reads and clears the auto-prompt intent,
// removing the read-then-reset race of the AutoPrompt/SetAutoPrompt pair.
func (m *Manager) TakeAutoPrompt() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.autoPrompt
	m.autoPrompt = false
	return v
}

func (m *Manager) hasKeyHalf(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keyHalves[userID]
	return ok
}

func (m *Manager) keyHalf(userID string) *KeyHalf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.keyHalves[userID]; ok {
		return &KeyHalf{Value: v}
	}
	return nil
}
