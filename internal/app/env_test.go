package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nQR_FOO=alpha\nQR_BAR=\"beta gamma\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("QR_FOO")
		os.Unsetenv("QR_BAR")
	})

	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("QR_FOO"); got != "alpha" {
		t.Fatalf("QR_FOO=%q, want alpha", got)
	}
	if got := os.Getenv("QR_BAR"); got != "beta gamma" {
		t.Fatalf("QR_BAR=%q, want 'beta gamma'", got)
	}
}

// Later files override earlier ones; the real environment is left alone.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("QR_PRESET", "from-shell")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("QR_K=first\nQR_PRESET=file-a\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("QR_K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("QR_K") })

	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("QR_K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
	if got := os.Getenv("QR_PRESET"); got != "from-shell" {
		t.Fatalf("shell value must not be replaced, got %q", got)
	}
}
