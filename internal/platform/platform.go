// Package platform provides the per-OS biometric backends behind the
// biometrics.Backend contract: TouchID plus Keychain on macOS, the
// Credential Manager on Windows, and polkit plus the Secret Service on
// Linux. Exactly one backend is selected at startup.
package platform

import "github.com/eliziario/bioguard/internal/biometrics"

// Config carries the platform knobs a backend may need. Fields irrelevant to
// the running OS are ignored.
type Config struct {
	// PolkitActionID is the polkit action checked on Linux before key
	// release. Defaults to DefaultPolkitActionID.
	PolkitActionID string

	// PolkitActionDir is where the polkit action definition is installed on
	// Linux. Defaults to DefaultPolkitPolicyDir.
	PolkitActionDir string
}

// DefaultPolkitActionID and DefaultPolkitPolicyDir locate the polkit action
// that gates biometric unlock on Linux.
const (
	DefaultPolkitActionID  = "com.bioguard.unlock"
	DefaultPolkitPolicyDir = "/usr/share/polkit-1/actions"
)

// New selects the biometric backend for the running platform. Selection
// happens once at startup; an unrecognized platform fails with
// biometrics.ErrUnrecognizedPlatform and must abort initialization.
func New(cfg Config) (biometrics.Backend, error) {
	if cfg.PolkitActionID == "" {
		cfg.PolkitActionID = DefaultPolkitActionID
	}
	if cfg.PolkitActionDir == "" {
		cfg.PolkitActionDir = DefaultPolkitPolicyDir
	}
	return newBackend(cfg)
}
