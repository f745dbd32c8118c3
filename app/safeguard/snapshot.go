package safeguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fleetwatch/sentinel/app/utils"
)

// Reason tags a Snapshot with why it was taken.
type Reason string

const (
	ReasonPreChange Reason = "pre-change"
	ReasonManual    Reason = "manual"
	ReasonBroken    Reason = "broken"
)

// snapshotName builds the <name>-YYYYMMDD-HHMMSS-<reason> filename for
// configPath's base name at the given time.
func snapshotName(configPath string, at time.Time, reason Reason) string {
	base := filepath.Base(configPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	return fmt.Sprintf("%s-%s-%s%s", name, at.UTC().Format("20060102-150405"), reason, ext)
}

// takeSnapshot copies configPath into snapshotDir under a timestamped,
// reason-tagged name and returns its absolute path.
func takeSnapshot(configPath, snapshotDir string, at time.Time, reason Reason) (string, error) {
	dst := filepath.Join(snapshotDir, snapshotName(configPath, at, reason))

	if err := utils.CopyFile(configPath, dst, 0600); err != nil {
		return "", fmt.Errorf("error snapshotting %s: %w", configPath, err)
	}

	return dst, nil
}

// listSnapshots returns every snapshot under dir, newest first by the
// timestamp component of the filename.
func listSnapshots(dir string) ([]string, error) {
	names, err := utils.ListDirectory(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error listing snapshot directory %s: %w", dir, err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(dir, name))
	}

	return paths, nil
}

// newestSnapshot returns the newest snapshot under dir, or "" if none.
func newestSnapshot(dir string) (string, error) {
	snapshots, err := listSnapshots(dir)
	if err != nil {
		return "", err
	}
	if len(snapshots) == 0 {
		return "", nil
	}
	return snapshots[0], nil
}

// pruneSnapshots deletes snapshots beyond retention, newest-first, never
// deleting keep (the file referenced by an armed ticket, if any).
func pruneSnapshots(dir string, retention int, keep string) error {
	snapshots, err := listSnapshots(dir)
	if err != nil {
		return err
	}

	if len(snapshots) <= retention {
		return nil
	}

	for _, path := range snapshots[retention:] {
		if path == keep {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error pruning snapshot %s: %w", path, err)
		}
	}

	return nil
}
