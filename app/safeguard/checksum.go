// Package safeguard implements ConfigSafeguard: commit-confirmed
// configuration change detection with a durable, crash-safe rollback
// ticket.
package safeguard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fleetwatch/sentinel/app/utils"
)

// sha256File returns the hex-encoded SHA-256 digest of path.
func sha256File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

// readChecksum reads the persisted checksum file. Returns "" with no error
// if it doesn't exist yet (first run).
func readChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("error reading checksum file %s: %w", path, err)
	}

	return string(data), nil
}

// writeChecksum persists digest to path with write-then-rename.
func writeChecksum(path, digest string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", path, err)
	}

	return utils.WriteFileAtomic(path, []byte(digest), 0600)
}
