package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Settings Settings `yaml:"settings"`
}

type Settings struct {
	// PromptReason is shown by the OS authentication dialog.
	PromptReason string `yaml:"prompt_reason"`

	Server  ServerSettings  `yaml:"server"`
	Logging LoggingSettings `yaml:"logging"`
	Polkit  PolkitSettings  `yaml:"polkit"`
}

type ServerSettings struct {
	Address string `yaml:"address"` // e.g. "127.0.0.1:7741"
}

type LoggingSettings struct {
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type PolkitSettings struct {
	ActionID  string `yaml:"action_id,omitempty"`
	ActionDir string `yaml:"action_dir,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			PromptReason: "Bioguard needs to verify your identity to release your unlock key",
			Server: ServerSettings{
				// Loopback only: the API carries key material.
				Address: "127.0.0.1:7741",
			},
			Logging: LoggingSettings{
				Level:      "info",
				MaxSizeMB:  10,
				MaxBackups: 5,
				MaxAgeDays: 30,
			},
		},
	}
}

func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "bioguard"), nil
}

func ConfigPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func (c *Config) Save() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
