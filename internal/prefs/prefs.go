// Package prefs persists per-user unlock preferences. The core consumes
// these through the biometrics.PreferenceStore interface; this file store
// exists so the daemon can run stand-alone.
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// UserPrefs are the persisted flags for one user.
type UserPrefs struct {
	BiometricUnlock        bool `yaml:"biometric_unlock"`
	RequirePasswordOnStart bool `yaml:"require_password_on_start"`
}

// FileStore keeps per-user preferences in a YAML file.
type FileStore struct {
	path string

	mu    sync.RWMutex
	users map[string]UserPrefs
}

// Open loads the preference file at path, creating an empty store when the
// file does not exist yet.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path, users: make(map[string]UserPrefs)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preference file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.users); err != nil {
		return nil, fmt.Errorf("failed to parse preference file: %w", err)
	}
	return s, nil
}

// DefaultPath returns ~/.config/bioguard/prefs.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "bioguard", "prefs.yaml"), nil
}

func (s *FileStore) BiometricUnlockEnabled(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID].BiometricUnlock, nil
}

func (s *FileStore) RequirePasswordOnStart(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID].RequirePasswordOnStart, nil
}

// Get returns the stored flags for a user; absent users get zero values.
func (s *FileStore) Get(userID string) UserPrefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID]
}

// Set replaces the flags for a user and saves the file.
func (s *FileStore) Set(userID string, p UserPrefs) error {
	s.mu.Lock()
	s.users[userID] = p
	s.mu.Unlock()
	return s.save()
}

// UserIDs returns the users with stored flags.
func (s *FileStore) UserIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids
}

// Remove drops a user's flags and saves the file.
func (s *FileStore) Remove(userID string) error {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
	return s.save()
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preference directory: %w", err)
	}

	s.mu.RLock()
	data, err := yaml.Marshal(s.users)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write preference file: %w", err)
	}
	return nil
}
