package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/binmeta/internal/registry"
)

const (
	// DirName is the per-vault configuration directory.
	DirName = ".binmeta"

	// FileName is the config file inside DirName.
	FileName = "config.yaml"

	// VaultEnv overrides vault discovery.
	VaultEnv = "BINMETA_VAULT"
)

// FindVaultHome returns the vault root binmeta should operate on.
// Priority order:
//  1. BINMETA_VAULT environment variable (if set)
//  2. The nearest directory at or above start holding a .binmeta folder
//  3. start itself (fallback)
func FindVaultHome(start string) (string, error) {
	if env := os.Getenv(VaultEnv); env != "" {
		return filepath.Abs(env)
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve vault directory: %w", err)
	}

	current := abs
	for {
		if info, err := os.Stat(filepath.Join(current, DirName)); err == nil && info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return abs, nil
}

// ConfigDir returns <root>/.binmeta.
func ConfigDir(root string) string {
	return filepath.Join(root, DirName)
}

// ConfigPath returns <root>/.binmeta/config.yaml.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), FileName)
}

// RegistryPath returns the registry sidecar of the vault at root.
func RegistryPath(root string) string {
	return filepath.Join(ConfigDir(root), registry.FileName)
}

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir(root string) (string, error) {
	dir := ConfigDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}
