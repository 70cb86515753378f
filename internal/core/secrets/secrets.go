// Package secrets resolves sensitive configuration values that may be
// supplied inline or through a file, following the Docker secrets
// convention of mounting credentials under /run/secrets.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSecretMissing is returned when neither an inline value nor a file
// path is provided for a required secret.
var ErrSecretMissing = errors.New("secret not configured")

// Resolve returns the secret value. If filePath is set, the file's
// contents win over the inline value; trailing whitespace is trimmed
// because secret files commonly end with a newline.
func Resolve(value, filePath string) (string, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", filePath, err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	if value != "" {
		return value, nil
	}
	return "", ErrSecretMissing
}

// ResolveOptional is like Resolve but returns an empty string instead of
// an error when the secret is not configured at all.
func ResolveOptional(value, filePath string) (string, error) {
	secret, err := Resolve(value, filePath)
	if errors.Is(err, ErrSecretMissing) {
		return "", nil
	}
	return secret, err
}
