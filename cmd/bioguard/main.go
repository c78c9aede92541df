package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/eliziario/bioguard/internal/biometrics"
	"github.com/eliziario/bioguard/internal/config"
	"github.com/eliziario/bioguard/internal/platform"
	"github.com/eliziario/bioguard/internal/prefs"
	"github.com/eliziario/bioguard/internal/tui"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [arguments]

Commands:
  status [user]     show platform status, or a user's unlock status
  enroll <user>     enable biometric unlock and store a protected key
  unlock <user>     release the protected key (biometric prompt)
  forget <user>     remove the protected key and disable biometric unlock
  test-auth         run one biometric authentication check
  setup             perform platform biometric setup
  dashboard         interactive status dashboard
`, os.Args[0])
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("Failed to load configuration: %v", err)
	}

	backend, err := platform.New(platform.Config{
		PolkitActionID:  cfg.Settings.Polkit.ActionID,
		PolkitActionDir: cfg.Settings.Polkit.ActionDir,
	})
	if err != nil {
		fatal("Failed to select biometric backend: %v", err)
	}

	prefsPath, err := prefs.DefaultPath()
	if err != nil {
		fatal("Failed to locate preference store: %v", err)
	}
	store, err := prefs.Open(prefsPath)
	if err != nil {
		fatal("Failed to open preference store: %v", err)
	}

	manager := biometrics.NewManager(backend, store, cfg.Settings.PromptReason)
	ctx := context.Background()

	switch os.Args[1] {
	case "status":
		if len(os.Args) > 2 {
			status, err := manager.StatusForUser(ctx, os.Args[2])
			if err != nil {
				fatal("Failed to read user status: %v", err)
			}
			fmt.Printf("%s: %s\n", os.Args[2], status)
		} else {
			fmt.Printf("platform: %s\n", manager.Status(ctx))
		}

	case "enroll":
		if len(os.Args) != 3 {
			usage()
		}
		enroll(ctx, manager, store, os.Args[2])

	case "unlock":
		if len(os.Args) != 3 {
			usage()
		}
		unlock(ctx, manager, os.Args[2])

	case "forget":
		if len(os.Args) != 3 {
			usage()
		}
		userID := os.Args[2]
		if err := manager.ForgetProtectedKey(ctx, userID); err != nil {
			fatal("Failed to remove protected key: %v", err)
		}
		if err := store.Remove(userID); err != nil {
			fatal("Failed to update preferences: %v", err)
		}
		fmt.Printf("Removed biometric unlock for %s\n", userID)

	case "test-auth":
		ok, err := manager.Authenticate(ctx)
		if err != nil {
			fatal("Authentication error: %v", err)
		}
		if ok {
			fmt.Println("Authentication succeeded")
		} else {
			fmt.Println("Authentication declined")
			os.Exit(1)
		}

	case "setup":
		if err := manager.Setup(ctx); err != nil {
			fatal("Setup failed: %v", err)
		}
		fmt.Println("Biometric setup complete")

	case "dashboard":
		model := tui.NewModel(manager, store.UserIDs())
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			fatal("Dashboard error: %v", err)
		}

	default:
		usage()
	}
}

// enroll registers the key half and unlock key for a user, then flips the
// user's biometric unlock preference on.
func enroll(ctx context.Context, manager *biometrics.Manager, store *prefs.FileStore, userID string) {
	fmt.Printf("Enter unlock key material (base64) for %s: ", userID)
	materialBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fatal("\nError reading key material: %v", err)
	}
	fmt.Println()

	material := string(materialBytes)
	if _, err := biometrics.ParseUnlockKey(material); err != nil {
		fatal("Invalid key material: %v", err)
	}

	fmt.Print("Enter client key half: ")
	halfBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fatal("\nError reading key half: %v", err)
	}
	fmt.Println()

	manager.SetClientKeyHalf(userID, string(halfBytes))
	if err := manager.ProtectKey(ctx, userID, material); err != nil {
		fatal("Failed to protect key: %v", err)
	}

	if err := store.Set(userID, prefs.UserPrefs{
		BiometricUnlock:        true,
		RequirePasswordOnStart: true,
	}); err != nil {
		fatal("Failed to save preferences: %v", err)
	}
	fmt.Printf("Biometric unlock enrolled for %s\n", userID)
}

func unlock(ctx context.Context, manager *biometrics.Manager, userID string) {
	fmt.Print("Enter client key half: ")
	halfBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fatal("\nError reading key half: %v", err)
	}
	fmt.Println()
	manager.SetClientKeyHalf(userID, string(halfBytes))

	key, err := manager.UnlockKey(ctx, userID)
	if err != nil {
		fatal("Unlock failed: %v", err)
	}
	fmt.Printf("Unlock key released (%d bytes)\n", len(key.Bytes()))
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
