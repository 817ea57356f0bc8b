// Package config resolves the vault directory and other CLI-facing
// settings for Zault. The core itself (internal/vault and below)
// accepts any directory path directly and reads no environment
// variables; this package is how the CLI driver (cmd/zault) honors
// spec section 6's "one environment variable."
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// vaultDirEnv is the one environment variable the CLI driver observes.
const vaultDirEnv = "ZAULT_VAULT_DIR"

// Config holds CLI-facing settings. The vault directory is the only
// setting the core cares about; the rest is here for a conventional
// config-file story, following the teacher's Default/Load/Save shape.
type Config struct {
	VaultDir string `json:"vault_dir"`

	// Features records CLI-only conveniences; the core has no feature
	// flags. cmd/zault does not load this config, so these flags do
	// not change its output.
	Features FeatureConfig `json:"features"`
}

// FeatureConfig for CLI feature flags.
type FeatureConfig struct {
	HumanizeSizes bool `json:"humanize_sizes"`
}

// Default returns the default configuration: ZAULT_VAULT_DIR if set,
// else ~/.zault.
func Default() *Config {
	return &Config{
		VaultDir: ResolveVaultDir(),
		Features: FeatureConfig{
			HumanizeSizes: true,
		},
	}
}

// ResolveVaultDir implements the vault path resolution policy from
// spec section 6: the ZAULT_VAULT_DIR environment variable if set,
// else a default under the user's home directory.
func ResolveVaultDir() string {
	if dir := os.Getenv(vaultDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zault"
	}
	return filepath.Join(home, ".zault")
}

// Load loads config from file, falling back to defaults. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.VaultDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// The environment variable always wins over a saved file, so a
	// config file committed to a shared dotfiles repo never silently
	// overrides the caller's intended vault.
	if dir := os.Getenv(vaultDirEnv); dir != "" {
		cfg.VaultDir = dir
	}

	return cfg, nil
}

// Save saves config to file.
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.VaultDir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
