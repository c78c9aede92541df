package biometrics

import "context"

const (
	// ServiceName is the fixed service label under which protected key blobs
	// are addressed in the OS secret store. Changing it orphans previously
	// stored blobs.
	ServiceName = "bioguard"

	storageKeySuffix = "_user_biometric"
)

// StorageKeyFor returns the per-user storage key half of the compound secret
// store identifier (ServiceName, StorageKeyFor(userID)). The format must be
// reproduced exactly to interoperate with previously stored blobs.
func StorageKeyFor(userID string) string {
	return userID + storageKeySuffix
}

// KeyHalf is the in-memory client key half threaded through backend calls.
// A nil *KeyHalf means no half was supplied; a non-nil KeyHalf with an empty
// Value means a half was supplied and happens to be empty. The two are not
// interchangeable.
type KeyHalf struct {
	Value string
}

// Backend is the contract every OS-specific biometric backend satisfies.
// One implementation is selected per platform at startup; the orchestrator
// holds a single Backend and never inspects the platform identity itself.
type Backend interface {
	// Supported reports whether the OS has a usable biometric hardware or
	// authentication service, independent of configuration state.
	Supported() bool

	// NeedsSetup reports whether additional OS-level configuration is
	// required before the biometric service can be used. Platforms without
	// a setup step always report false.
	NeedsSetup() bool

	// CanAutoSetup reports whether the needed setup can be performed
	// programmatically. Only consulted when NeedsSetup is true.
	CanAutoSetup() bool

	// Setup performs the automatic OS-level configuration. Returns
	// ErrAutoSetupUnavailable when the preconditions are not met.
	Setup(ctx context.Context) error

	// Authenticate blocks on OS-mediated user interaction and reports
	// whether authentication succeeded. A declined or failed attempt is a
	// normal false; only unexpected OS failures are returned as errors.
	Authenticate(ctx context.Context, reason string) (bool, error)

	// GetKey retrieves the value stored under (service, key), combining it
	// with the client key half where the storage format requires one.
	// Fails with ErrKeyNotFound, ErrAuthenticationFailed or
	// ErrKeyHalfMismatch.
	GetKey(ctx context.Context, service, key string, half *KeyHalf) (string, error)

	// SetKey stores value under (service, key), bound to the supplied key
	// half where the platform's security model supports it.
	SetKey(ctx context.Context, service, key, value string, half *KeyHalf) error

	// DeleteKey removes the value stored under (service, key). Idempotent:
	// deleting a missing entry is not an error.
	DeleteKey(ctx context.Context, service, key string) error
}
