// Package keygen creates IndexNow API keys.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/JakeFAU/indexnow-notifier/internal/config"
)

// KeyBytes is the amount of entropy in a generated key. The hex form is
// twice as long.
const KeyBytes = 16

// SettingEnv is the environment variable that carries the key.
const SettingEnv = config.EnvPrefix + "_INDEXNOW_API_KEY"

// Generate returns a random 32-character lowercase hex key.
func Generate() (string, error) {
	return generate(rand.Reader)
}

func generate(r io.Reader) (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SettingLine renders key as an environment assignment ready to paste into
// a deployment.
func SettingLine(key string) string {
	return SettingEnv + "=" + key
}
