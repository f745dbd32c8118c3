package safeguard

import "time"

// StatusInfo is a read-only snapshot of ConfigSafeguard's persisted state,
// for the `status` CLI command. It reads directly from disk rather than
// through a live Module, since status is typically invoked from a
// separate process than the running supervisor.
type StatusInfo struct {
	ChecksumPrefix string
	Armed          bool
	ArmedDeadline  time.Time
	SnapshotCount  int
	NewestSnapshot string
}

// ReadStatus reads the current checksum, armed ticket and snapshot
// directory without requiring a live HealthProbe/Restarter.
func ReadStatus(checksumPath, ticketPath, snapshotDir string) (StatusInfo, error) {
	var info StatusInfo

	digest, err := readChecksum(checksumPath)
	if err != nil {
		return info, err
	}
	if len(digest) >= 12 {
		info.ChecksumPrefix = digest[:12]
	} else {
		info.ChecksumPrefix = digest
	}

	ticket, err := readTicket(ticketPath)
	if err != nil {
		return info, err
	}
	if ticket != nil {
		info.Armed = true
		info.ArmedDeadline = ticket.Deadline
	}

	snapshots, err := listSnapshots(snapshotDir)
	if err != nil {
		return info, err
	}
	info.SnapshotCount = len(snapshots)
	if len(snapshots) > 0 {
		info.NewestSnapshot = snapshots[0]
	}

	return info, nil
}
