package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capabilities.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, "version: 1\nallow:\n  - math\n  - plot\n")

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Version != 1 {
		t.Errorf("version = %d, want 1", m.Version)
	}
	if len(m.Allow) != 2 || m.Allow[0] != "math" || m.Allow[1] != "plot" {
		t.Errorf("allow = %v", m.Allow)
	}
}

func TestLoadManifestMissingVersion(t *testing.T) {
	path := writeManifest(t, "allow:\n  - math\n")
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for missing version")
	}
}

func TestLoadManifestEmptyAllowList(t *testing.T) {
	path := writeManifest(t, "version: 1\nallow: []\n")
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for empty allow list")
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
