package api

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateToken_GeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "session.token")

	token, err := LoadOrCreateToken(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 32 bytes base64url without padding is 43 characters.
	if len(token) != 43 {
		t.Errorf("token length = %d, want 43", len(token))
	}

	again, err := LoadOrCreateToken(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again != token {
		t.Error("token was regenerated instead of reused")
	}
}

func TestLoadOrCreateToken_ReplacesShortToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.token")
	if err := os.WriteFile(path, []byte("too-short\n"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	token, err := LoadOrCreateToken(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if token == "too-short" {
		t.Error("short token should have been replaced")
	}
}

func TestLoadOrCreateToken_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.token")
	if err := os.WriteFile(path, []byte("  a-perfectly-valid-session-token  \n"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	token, err := LoadOrCreateToken(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if token != "a-perfectly-valid-session-token" {
		t.Errorf("token = %q", token)
	}
}
