package biometrics

// CapabilityStatus describes platform-level biometric readiness. It never
// references a specific user.
type CapabilityStatus int

const (
	// CapabilityAvailable means biometric hardware is present and configured.
	CapabilityAvailable CapabilityStatus = iota
	// CapabilityHardwareUnavailable means the OS reports no usable biometric
	// hardware or service.
	CapabilityHardwareUnavailable
	// CapabilityManualSetupNeeded means hardware is supported but OS-level
	// configuration is required and cannot be performed programmatically.
	CapabilityManualSetupNeeded
	// CapabilityAutoSetupNeeded means hardware is supported and the required
	// OS-level configuration can be performed by Setup.
	CapabilityAutoSetupNeeded
)

func (s CapabilityStatus) String() string {
	switch s {
	case CapabilityAvailable:
		return "available"
	case CapabilityHardwareUnavailable:
		return "hardware-unavailable"
	case CapabilityManualSetupNeeded:
		return "manual-setup-needed"
	case CapabilityAutoSetupNeeded:
		return "auto-setup-needed"
	default:
		return "unknown"
	}
}

// UserStatus layers per-user unlock gating on top of CapabilityStatus.
// UnlockNeeded exists only at the user level: the platform is capable and the
// user enabled biometric unlock, but the in-memory client key half has not
// been supplied this session.
type UserStatus int

const (
	UserStatusAvailable UserStatus = iota
	UserStatusHardwareUnavailable
	UserStatusManualSetupNeeded
	UserStatusAutoSetupNeeded
	UserStatusNotEnabledLocally
	UserStatusUnlockNeeded
)

func (s UserStatus) String() string {
	switch s {
	case UserStatusAvailable:
		return "available"
	case UserStatusHardwareUnavailable:
		return "hardware-unavailable"
	case UserStatusManualSetupNeeded:
		return "manual-setup-needed"
	case UserStatusAutoSetupNeeded:
		return "auto-setup-needed"
	case UserStatusNotEnabledLocally:
		return "not-enabled-locally"
	case UserStatusUnlockNeeded:
		return "unlock-needed"
	default:
		return "unknown"
	}
}

// userStatusFor maps a platform-level status onto the user-level enumeration.
// Platform statuses propagate unchanged to the user-level result.
func userStatusFor(s CapabilityStatus) UserStatus {
	switch s {
	case CapabilityHardwareUnavailable:
		return UserStatusHardwareUnavailable
	case CapabilityManualSetupNeeded:
		return UserStatusManualSetupNeeded
	case CapabilityAutoSetupNeeded:
		return UserStatusAutoSetupNeeded
	default:
		return UserStatusAvailable
	}
}
