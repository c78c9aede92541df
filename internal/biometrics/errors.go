package biometrics

import "errors"

var (
	// ErrUnrecognizedPlatform indicates backend selection ran on a platform
	// with no biometric backend. Fatal at startup, never a runtime status.
	ErrUnrecognizedPlatform = errors.New("biometrics: unrecognized platform")

	// ErrAutoSetupUnavailable indicates Setup was called but the platform
	// cannot perform its configuration programmatically.
	ErrAutoSetupUnavailable = errors.New("biometrics: automatic setup is not available")

	// ErrKeyNotFound indicates no protected key blob is stored for the user.
	ErrKeyNotFound = errors.New("biometrics: protected key not found")

	// ErrAuthenticationFailed indicates the OS gate rejected key retrieval.
	// A user declining a biometric prompt is not this error; Authenticate
	// reports that as a plain false.
	ErrAuthenticationFailed = errors.New("biometrics: authentication failed")

	// ErrKeyHalfMismatch indicates the stored blob requires a client key half
	// that is absent or does not match.
	ErrKeyHalfMismatch = errors.New("biometrics: client key half missing or incorrect")

	// ErrInvalidKeyMaterial indicates retrieved material is not a valid
	// unlock key encoding.
	ErrInvalidKeyMaterial = errors.New("biometrics: invalid unlock key material")

	// ErrMissingKeyHalf indicates an attempt to protect a key before a client
	// key half was registered for the user. Protecting without a key half
	// would silently weaken the binding, so this fails closed.
	ErrMissingKeyHalf = errors.New("biometrics: no client key half registered for user")
)
