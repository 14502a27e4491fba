package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindVaultHome(t *testing.T) {
	t.Setenv(VaultEnv, "")

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DirName), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "notes", "daily")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindVaultHome(nested)
	if err != nil {
		t.Fatalf("FindVaultHome() error = %v", err)
	}
	if got != root {
		t.Errorf("FindVaultHome() = %q, want %q", got, root)
	}
}

func TestFindVaultHomeFallback(t *testing.T) {
	t.Setenv(VaultEnv, "")

	dir := t.TempDir()
	got, err := FindVaultHome(dir)
	if err != nil {
		t.Fatalf("FindVaultHome() error = %v", err)
	}
	if got != dir {
		t.Errorf("FindVaultHome() = %q, want start dir %q", got, dir)
	}
}

func TestFindVaultHomeEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(VaultEnv, dir)

	got, err := FindVaultHome(t.TempDir())
	if err != nil {
		t.Fatalf("FindVaultHome() error = %v", err)
	}
	if got != dir {
		t.Errorf("FindVaultHome() = %q, want %q", got, dir)
	}
}

func TestPaths(t *testing.T) {
	root := filepath.Join("vault", "root")
	if got := ConfigPath(root); got != filepath.Join(root, ".binmeta", "config.yaml") {
		t.Errorf("ConfigPath() = %q", got)
	}
	if got := RegistryPath(root); got != filepath.Join(root, ".binmeta", "binary-file-list.txt") {
		t.Errorf("RegistryPath() = %q", got)
	}

	tmp := t.TempDir()
	dir, err := EnsureConfigDir(tmp)
	if err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("config dir not created: %v", err)
	}
}
