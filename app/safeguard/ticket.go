package safeguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fleetwatch/sentinel/app/utils"
)

// Ticket is the durable, crash-safe record of an in-flight config change
// awaiting confirmation or rollback. The commit-confirmed behaviour cannot
// rely on in-process memory, so it is persisted as a two-line file: this
// replaces any notion of a live callback or in-memory timer.
type Ticket struct {
	Deadline     time.Time
	SnapshotPath string
}

// readTicket loads the armed ticket from path, if any. Returns nil, nil
// when no ticket is armed.
func readTicket(path string) (*Ticket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading ticket file %s: %w", path, err)
	}

	lines := strings.SplitN(strings.TrimRight(string(data), "\n"), "\n", 2)
	if len(lines) != 2 {
		return nil, fmt.Errorf("malformed ticket file %s", path)
	}

	epoch, err := strconv.ParseInt(strings.TrimSpace(lines[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing ticket deadline in %s: %w", path, err)
	}

	return &Ticket{
		Deadline:     time.Unix(epoch, 0),
		SnapshotPath: strings.TrimSpace(lines[1]),
	}, nil
}

// writeTicket persists t to path with write-then-rename, so a crash cannot
// observe a truncated ticket.
func writeTicket(path string, t *Ticket) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", path, err)
	}

	body := fmt.Sprintf("%d\n%s\n", t.Deadline.Unix(), t.SnapshotPath)

	return utils.WriteFileAtomic(path, []byte(body), 0600)
}

// clearTicket atomically removes the armed ticket. Idempotent.
func clearTicket(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing ticket file %s: %w", path, err)
	}
	return nil
}
