// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want %q", cfg.Server.Host, "localhost")
	}
	if cfg.Server.Port != 443 {
		t.Errorf("Port = %d, want 443", cfg.Server.Port)
	}
	if cfg.Server.ID != 1 {
		t.Errorf("ID = %d, want 1", cfg.Server.ID)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  host: idr.openmicroscopy.org
  user: public
  password: public
handlers:
  - idr
ui:
  verbose: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Host != "idr.openmicroscopy.org" {
		t.Errorf("Host = %q", cfg.Server.Host)
	}
	if cfg.Server.User != "public" {
		t.Errorf("User = %q", cfg.Server.User)
	}
	// Unset keys keep their defaults.
	if cfg.Server.Port != 443 {
		t.Errorf("Port = %d, want default 443", cfg.Server.Port)
	}
	if len(cfg.Handlers) != 1 || cfg.Handlers[0] != "idr" {
		t.Errorf("Handlers = %v", cfg.Handlers)
	}
	if !cfg.UI.Verbose {
		t.Error("Verbose should be true")
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail when the explicit config file is missing")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestLoadFromConfigDir(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	defer Reset()

	content := "server:\n  host: omero.example.org\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Host != "omero.example.org" {
		t.Errorf("Host = %q", cfg.Server.Host)
	}
}

func TestLoadWithoutAnyFile(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	defer Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	defer Reset()

	t.Setenv("OMERO_HOST", "env.example.org")
	t.Setenv("OMERO_USER", "envuser")
	t.Setenv("OMERO_SESSION", "sess-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Host != "env.example.org" {
		t.Errorf("Host = %q, want env value", cfg.Server.Host)
	}
	if cfg.Server.User != "envuser" {
		t.Errorf("User = %q, want env value", cfg.Server.User)
	}
	if cfg.Server.Session != "sess-token" {
		t.Errorf("Session = %q, want env value", cfg.Server.Session)
	}
}

func TestEnvironmentBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  host: file.example.org\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OMERO_HOST", "env.example.org")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Host != "env.example.org" {
		t.Errorf("Host = %q, environment should take precedence", cfg.Server.Host)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	defer Reset()

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}

	Reset()
	got, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if got == dir {
		t.Error("Reset() should clear the override")
	}
	if filepath.Base(got) != AppName {
		t.Errorf("ConfigDir() = %q, want a path ending in %q", got, AppName)
	}
}
