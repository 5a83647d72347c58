package api

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// minTokenLength guards against a truncated or hand-edited token file; a
// shorter value is discarded and regenerated.
const minTokenLength = 20

// LoadOrCreateToken returns the persisted session token, generating and
// persisting a fresh one when the file is missing or its content is too
// short to trust. The token is 32 random bytes, base64url without padding.
func LoadOrCreateToken(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil {
		token := strings.TrimSpace(string(data))
		if len(token) >= minTokenLength {
			return token, nil
		}
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}
	return token, nil
}
