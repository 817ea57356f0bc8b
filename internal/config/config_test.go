package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.VaultDir == "" {
		t.Error("VaultDir should not be empty")
	}
	if !cfg.Features.HumanizeSizes {
		t.Error("Features.HumanizeSizes should default to true")
	}
}

func TestDefault_VaultDirFromEnv(t *testing.T) {
	testDir := t.TempDir()
	os.Setenv(vaultDirEnv, testDir)
	defer os.Unsetenv(vaultDirEnv)

	cfg := Default()
	if cfg.VaultDir != testDir {
		t.Errorf("VaultDir = %q, want %q", cfg.VaultDir, testDir)
	}
}

func TestDefault_VaultDirFallsBackToHome(t *testing.T) {
	os.Unsetenv(vaultDirEnv)

	cfg := Default()
	if !filepath.IsAbs(cfg.VaultDir) {
		t.Error("VaultDir should be an absolute path")
	}
	if filepath.Base(cfg.VaultDir) != ".zault" {
		t.Errorf("VaultDir should end with .zault, got %q", filepath.Base(cfg.VaultDir))
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	os.Unsetenv(vaultDirEnv)
	cfg, err := Load("/non/existent/path/config.json")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for non-existent file", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
}

func TestLoad_ValidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	os.Unsetenv(vaultDirEnv)

	testConfig := Config{
		VaultDir: "/custom/vault",
		Features: FeatureConfig{HumanizeSizes: false},
	}

	data, err := json.Marshal(testConfig)
	if err != nil {
		t.Fatalf("failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VaultDir != "/custom/vault" {
		t.Errorf("VaultDir = %q, want %q", cfg.VaultDir, "/custom/vault")
	}
	if cfg.Features.HumanizeSizes {
		t.Error("Features.HumanizeSizes should be false")
	}
}

func TestLoad_EnvOverridesFileVaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	testConfig := map[string]interface{}{"vault_dir": "/from/file"}
	data, _ := json.Marshal(testConfig)
	os.WriteFile(configPath, data, 0644)

	envDir := t.TempDir()
	os.Setenv(vaultDirEnv, envDir)
	defer os.Unsetenv(vaultDirEnv)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VaultDir != envDir {
		t.Errorf("VaultDir = %q, want %q (env override)", cfg.VaultDir, envDir)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	os.WriteFile(configPath, []byte("{ invalid json }"), 0644)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

func TestSave_CreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.json")

	cfg := Default()
	cfg.VaultDir = tmpDir

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("failed to unmarshal saved config: %v", err)
	}
	if loaded.VaultDir != tmpDir {
		t.Errorf("saved VaultDir = %q, want %q", loaded.VaultDir, tmpDir)
	}
}

func TestSave_EmptyPath(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.VaultDir = tmpDir

	if err := cfg.Save(""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	defaultPath := filepath.Join(tmpDir, "config.json")
	if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
		t.Errorf("config file was not created at default path: %s", defaultPath)
	}
}

func TestSave_FilePermissions(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestSave_DirectoryPermissions(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}

	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "newdir")
	configPath := filepath.Join(subDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	info, err := os.Stat(subDir)
	if err != nil {
		t.Fatalf("failed to stat directory: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("directory permissions = %o, want 0700", perm)
	}
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	original := &Config{
		VaultDir: "/test/vault",
		Features: FeatureConfig{HumanizeSizes: false},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if loaded.VaultDir != original.VaultDir {
		t.Errorf("VaultDir = %q, want %q", loaded.VaultDir, original.VaultDir)
	}
	if loaded.Features.HumanizeSizes != original.Features.HumanizeSizes {
		t.Errorf("Features.HumanizeSizes = %v, want %v", loaded.Features.HumanizeSizes, original.Features.HumanizeSizes)
	}
}

func TestLoadAndSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	os.Unsetenv(vaultDirEnv)

	original := Default()
	original.VaultDir = tmpDir
	original.Features.HumanizeSizes = false

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.VaultDir != original.VaultDir {
		t.Errorf("loaded VaultDir = %q, want %q", loaded.VaultDir, original.VaultDir)
	}
	if loaded.Features.HumanizeSizes != original.Features.HumanizeSizes {
		t.Errorf("loaded Features.HumanizeSizes = %v, want %v", loaded.Features.HumanizeSizes, original.Features.HumanizeSizes)
	}
}
