//go:build linux

package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/godbus/dbus/v5"

	"github.com/eliziario/bioguard/internal/biometrics"
)

const (
	polkitBusName   = "org.freedesktop.PolicyKit1"
	polkitPath      = "/org/freedesktop/PolicyKit1/Authority"
	polkitCheckAuth = "org.freedesktop.PolicyKit1.Authority.CheckAuthorization"

	// Lets polkit bring up its own authentication agent dialog.
	polkitAllowInteraction = uint32(1)
)

// linuxBackend authenticates through polkit (fingerprint, password or
// whatever the active polkit agent offers) and stores blobs in the Secret
// Service. The polkit action definition must be installed before the
// backend is usable; writing it is the platform's setup step.
type linuxBackend struct {
	actionID   string
	policyPath string
}

func newBackend(cfg Config) (biometrics.Backend, error) {
	return &linuxBackend{
		actionID:   cfg.PolkitActionID,
		policyPath: filepath.Join(cfg.PolkitActionDir, cfg.PolkitActionID+".policy"),
	}, nil
}

func (b *linuxBackend) Supported() bool {
	conn, err := dbus.SystemBus()
	if err != nil {
		return false
	}
	var hasOwner bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, polkitBusName).Store(&hasOwner)
	return err == nil && hasOwner
}

func (b *linuxBackend) NeedsSetup() bool {
	_, err := os.Stat(b.policyPath)
	return os.IsNotExist(err)
}

func (b *linuxBackend) CanAutoSetup() bool {
	return os.Geteuid() == 0
}

// Setup installs the polkit action definition. Needs root; otherwise the
// user must install the policy file through their package manager.
func (b *linuxBackend) Setup(ctx context.Context) error {
	if !b.CanAutoSetup() {
		return fmt.Errorf("%w: installing %s requires root", biometrics.ErrAutoSetupUnavailable, b.policyPath)
	}
	policy := fmt.Sprintf(polkitPolicyTemplate, b.actionID)
	if err := os.WriteFile(b.policyPath, []byte(policy), 0o644); err != nil {
		return fmt.Errorf("installing polkit policy: %w", err)
	}
	return nil
}

func (b *linuxBackend) Authenticate(ctx context.Context, reason string) (bool, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return false, fmt.Errorf("connecting to system bus: %w", err)
	}

	subject := struct {
		Kind    string
		Details map[string]dbus.Variant
	}{
		Kind: "unix-process",
		Details: map[string]dbus.Variant{
			"pid":        dbus.MakeVariant(uint32(os.Getpid())),
			"start-time": dbus.MakeVariant(uint64(0)),
		},
	}

	var result struct {
		IsAuthorized bool
		IsChallenge  bool
		Details      map[string]string
	}
	call := conn.Object(polkitBusName, polkitPath).CallWithContext(
		ctx, polkitCheckAuth, 0,
		subject, b.actionID, map[string]string{"polkit.message": reason},
		polkitAllowInteraction, "",
	)
	if call.Err != nil {
		return false, fmt.Errorf("polkit authorization check: %w", call.Err)
	}
	if err := call.Store(&result); err != nil {
		return false, fmt.Errorf("polkit authorization check: %w", err)
	}
	// A dismissed agent dialog comes back unauthorized, which is a normal
	// false outcome rather than an error.
	return result.IsAuthorized, nil
}

func (b *linuxBackend) GetKey(ctx context.Context, service, key string, half *biometrics.KeyHalf) (string, error) {
	ok, err := b.Authenticate(ctx, "Bioguard needs to verify your identity to release your unlock key")
	if err != nil {
		return "", err
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

func (b *linuxBackend) SetKey(ctx context.Context, service, key, value string, half *biometrics.KeyHalf) error {
	sealed, err := sealWithHalf(value, half)
	if err != nil {
		return err
	}
	return storeSet(service, key, sealed)
}

func (b *linuxBackend) DeleteKey(ctx context.Context, service, key string) error {
	return storeDelete(service, key)
}

const polkitPolicyTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE policyconfig PUBLIC "-//freedesktop//DTD PolicyKit Policy Configuration 1.0//EN"
 "http://www.freedesktop.org/standards/PolicyKit/1.0/policyconfig.dtd">
<policyconfig>
  <action id="%s">
    <description>Unlock Bioguard</description>
    <message>Authenticate to release your unlock key</message>
    <defaults>
      <allow_any>auth_self</allow_any>
      <allow_inactive>auth_self</allow_inactive>
      <allow_active>auth_self</allow_active>
    </defaults>
  </action>
</policyconfig>
`
