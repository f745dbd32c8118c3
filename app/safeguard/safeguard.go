package safeguard

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fleetwatch/sentinel/app/log"
	"github.com/fleetwatch/sentinel/app/utils"
)

// ArmedState is the in-memory half of the armed-ticket state machine; the
// durable half is the Ticket file itself.
type ArmedState int

const (
	// ArmedUnseen: no healthy observation yet since arming.
	ArmedUnseen ArmedState = iota
	// ArmedHealthy: at least one healthy window began at healthySince.
	ArmedHealthy
)

// HealthProbe is the subset of GatewayHealth's signals the armed-state
// machine needs. *health.Prober satisfies this structurally.
type HealthProbe interface {
	Liveness(ctx context.Context) bool
	HTTPHealth(ctx context.Context) bool
}

// Restarter requests a gateway restart outside of GatewayHealth's own
// backoff/cooldown accounting — a rollback is a deliberate corrective
// action, not a failure the backoff ladder should remember.
type Restarter interface {
	Restart(ctx context.Context) error
}

// Module is ConfigSafeguard.
type Module struct {
	ConfigPath        string
	ChecksumPath      string
	TicketPath        string
	SnapshotDir       string
	RollbackTimeout   time.Duration
	SnapshotRetention int
	SettleDelay       time.Duration

	Health  HealthProbe
	Restart Restarter
	watcher *Watcher

	ticket       *Ticket
	state        ArmedState
	healthySince time.Time
	tickCount    int
}

// watcherResyncEveryNTicks bounds how long a change can go undetected if
// the fsnotify watch is ever left stranded on a stale inode: an atomic
// rename-over-configPath (the same write-then-rename idiom this package's
// own WriteFileAtomic uses) leaves an existing watch pinned to the old,
// now-orphaned inode, which never fires again. Every Nth tick forces a
// full rehash and re-arms the watcher onto whatever inode currently lives
// at ConfigPath, regardless of what Pending() reports.
const watcherResyncEveryNTicks = 20

// NewModule constructs a Module and re-loads any surviving ticket file,
// re-entering it in state Armed-Unseen with its original absolute deadline
// honoured as-is, per the crash-recovery contract.
func NewModule(configPath, checksumPath, ticketPath, snapshotDir string, rollbackTimeout time.Duration,
	snapshotRetention int, health HealthProbe, restarter Restarter) (*Module, error) {

	ticket, err := readTicket(ticketPath)
	if err != nil {
		return nil, fmt.Errorf("error loading rollback ticket: %w", err)
	}

	m := &Module{
		ConfigPath:        configPath,
		ChecksumPath:      checksumPath,
		TicketPath:        ticketPath,
		SnapshotDir:       snapshotDir,
		RollbackTimeout:   rollbackTimeout,
		SnapshotRetention: snapshotRetention,
		SettleDelay:       10 * time.Second,
		Health:            health,
		Restart:           restarter,
		ticket:            ticket,
		state:             ArmedUnseen,
	}

	if ticket != nil {
		log.Infof("re-armed rollback ticket from disk (deadline=%s)", ticket.Deadline)
	}

	if watcher, err := NewWatcher(configPath); err != nil {
		log.Warnf("config watcher unavailable, hashing every tick: %v", err)
	} else {
		m.watcher = watcher
	}

	return m, nil
}

// Close releases the fsnotify watcher, if any.
func (m *Module) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

// Armed reports whether a rollback ticket is currently armed.
func (m *Module) Armed() bool { return m.ticket != nil }

// CurrentTicket returns the currently armed ticket, or nil.
func (m *Module) CurrentTicket() *Ticket { return m.ticket }

// Tick runs the change-detection algorithm, or the armed-state machine if
// a ticket is already armed.
func (m *Module) Tick(ctx context.Context, now time.Time) error {
	if m.ticket != nil {
		return m.tickArmed(ctx, now)
	}

	if _, err := os.Stat(m.ConfigPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error checking config path %s: %w", m.ConfigPath, err)
	}

	prior, err := readChecksum(m.ChecksumPath)
	if err != nil {
		log.Errorf("error reading config checksum: %v", err)
		return nil
	}

	m.tickCount++
	forceRehash := m.tickCount%watcherResyncEveryNTicks == 0
	if forceRehash {
		m.resyncWatcher()
	}

	// Once a checksum has been recorded, the fsnotify watcher can tell us
	// nothing changed without re-hashing. Bootstrap always hashes, and the
	// periodic forceRehash backstops a watch stranded on a stale inode.
	if prior != "" && m.watcher != nil && !m.watcher.Pending() && !forceRehash {
		return nil
	}

	digest, err := sha256File(m.ConfigPath)
	if err != nil {
		log.Errorf("error hashing config: %v", err)
		return nil
	}

	if prior == "" {
		if err := writeChecksum(m.ChecksumPath, digest); err != nil {
			log.Errorf("error persisting bootstrap checksum: %v", err)
		}
		return nil
	}

	if prior == digest {
		return nil
	}

	return m.armChange(ctx, now, digest)
}

// armChange handles a detected content change: snapshot, settle, arm.
func (m *Module) armChange(ctx context.Context, now time.Time, newDigest string) error {
	snapshotPath, err := takeSnapshot(m.ConfigPath, m.SnapshotDir, now, ReasonPreChange)
	if err != nil {
		log.Errorf("error snapshotting config change, skipping this tick: %v", err)
		return nil
	}

	log.Infof("config change detected, settling before arming")
	sleep(ctx, m.SettleDelay)

	ticket := &Ticket{
		Deadline:     now.Add(m.RollbackTimeout),
		SnapshotPath: snapshotPath,
	}

	if err := writeTicket(m.TicketPath, ticket); err != nil {
		log.Errorf("error arming rollback ticket: %v", err)
		return nil
	}

	if err := writeChecksum(m.ChecksumPath, newDigest); err != nil {
		log.Errorf("error persisting new config checksum: %v", err)
	}

	if err := pruneSnapshots(m.SnapshotDir, m.SnapshotRetention, snapshotPath); err != nil {
		log.Warnf("error pruning snapshots: %v", err)
	}

	m.ticket = ticket
	m.state = ArmedUnseen

	log.Infof("rollback ticket armed (deadline=%s, snapshot=%s)", ticket.Deadline, snapshotPath)

	return nil
}

// tickArmed advances the armed-state machine using freshly re-sampled
// health, never the values GatewayHealth observed earlier this tick.
func (m *Module) tickArmed(ctx context.Context, now time.Time) error {
	liveness := m.Health.Liveness(ctx)
	httpHealthy := liveness && m.Health.HTTPHealth(ctx)

	if httpHealthy {
		if m.state == ArmedUnseen {
			m.state = ArmedHealthy
			m.healthySince = now
			log.Infof("armed ticket observed healthy, transitioning to Armed-Healthy")
		}

		if !now.Before(m.ticket.Deadline) {
			log.Infof("rollback deadline reached while healthy, auto-confirming")
			_, err := m.Confirm()
			return err
		}

		return nil
	}

	log.Warnf("gateway unhealthy with a rollback armed, rolling back immediately")
	return m.rollbackTo(ctx, m.ticket.SnapshotPath)
}

// Confirm atomically removes the armed ticket, leaving snapshots intact.
// Idempotent: a no-op, reported via wasArmed=false, when nothing is armed.
func (m *Module) Confirm() (wasArmed bool, err error) {
	if m.ticket == nil {
		return false, nil
	}

	if err := clearTicket(m.TicketPath); err != nil {
		return true, err
	}

	m.ticket = nil
	m.state = ArmedUnseen
	m.healthySince = time.Time{}

	return true, nil
}

// Rollback restores the selected snapshot over the config path. path may
// be empty, in which case the ticket's snapshot is used, falling back to
// the newest snapshot on disk when nothing is armed.
func (m *Module) Rollback(ctx context.Context, path string) error {
	target := path

	if target == "" {
		if m.ticket != nil {
			target = m.ticket.SnapshotPath
		} else {
			newest, err := newestSnapshot(m.SnapshotDir)
			if err != nil {
				return err
			}
			target = newest
		}
	}

	if target == "" {
		return fmt.Errorf("no snapshot available")
	}

	return m.rollbackTo(ctx, target)
}

func (m *Module) rollbackTo(ctx context.Context, snapshotPath string) error {
	rollbackID := uuid.NewString()
	log.Warnf("rollback %s: restoring %s", rollbackID, snapshotPath)

	if err := utils.CopyFile(snapshotPath, m.ConfigPath, 0600); err != nil {
		return fmt.Errorf("error restoring snapshot %s: %w", snapshotPath, err)
	}

	if digest, err := sha256File(m.ConfigPath); err != nil {
		log.Errorf("error hashing restored config: %v", err)
	} else if err := writeChecksum(m.ChecksumPath, digest); err != nil {
		log.Errorf("error persisting checksum after rollback: %v", err)
	}

	if err := clearTicket(m.TicketPath); err != nil {
		log.Errorf("error clearing rollback ticket: %v", err)
	}

	m.ticket = nil
	m.state = ArmedUnseen
	m.healthySince = time.Time{}

	if m.Restart != nil {
		if err := m.Restart.Restart(ctx); err != nil {
			log.Errorf("rollback %s: error requesting restart: %v", rollbackID, err)
		}
	}

	log.Warnf("rollback %s: complete, config restored to %s (reason=config-rollback)", rollbackID, snapshotPath)

	return nil
}

// Snapshot copies the config to a timestamped, reason-tagged path and
// prunes to retention.
func (m *Module) Snapshot(reason Reason, at time.Time) (string, error) {
	if _, err := os.Stat(m.ConfigPath); err != nil {
		return "", fmt.Errorf("error reading config path %s: %w", m.ConfigPath, err)
	}

	path, err := takeSnapshot(m.ConfigPath, m.SnapshotDir, at, reason)
	if err != nil {
		return "", err
	}

	keep := ""
	if m.ticket != nil {
		keep = m.ticket.SnapshotPath
	}

	if err := pruneSnapshots(m.SnapshotDir, m.SnapshotRetention, keep); err != nil {
		log.Warnf("error pruning snapshots: %v", err)
	}

	return path, nil
}

// resyncWatcher closes and re-creates the fsnotify watch on ConfigPath, so
// it re-attaches to whatever inode currently lives there. A no-op if no
// watcher was ever established; falls back to hash-only (watcher nil)
// again if the re-arm itself fails.
func (m *Module) resyncWatcher() {
	if m.watcher == nil {
		return
	}

	if err := m.watcher.Close(); err != nil {
		log.Warnf("error closing config watcher during resync: %v", err)
	}

	watcher, err := NewWatcher(m.ConfigPath)
	if err != nil {
		log.Warnf("config watcher resync failed, falling back to hash-only: %v", err)
		m.watcher = nil
		return
	}

	m.watcher = watcher
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
