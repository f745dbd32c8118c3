// Package backup implements ConfigBackup: a rate-limited, git-backed
// file-history archiver. Specified only at its interface by the system
// this supervises (reason, retention and wire format are an external
// concern); this implementation gives status reporting something real to
// show by actually shelling out to git.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fleetwatch/sentinel/app/log"
	"github.com/fleetwatch/sentinel/app/utils"
)

// Module is ConfigBackup.
type Module struct {
	ConfigPath string
	RepoDir    string

	limiter *rate.Limiter

	lastRun    time.Time
	lastCommit string
}

// NewModule returns a Module that archives at most once per interval.
func NewModule(configPath, repoDir string, interval time.Duration) *Module {
	return &Module{
		ConfigPath: configPath,
		RepoDir:    repoDir,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Tick archives the current config into the backup repo if the rate
// limiter allows it this tick. Failures are logged, never fatal: this is
// a side task, not part of the supervision engine's correctness.
func (m *Module) Tick(ctx context.Context, now time.Time) {
	if !m.limiter.AllowN(now, 1) {
		return
	}

	if _, err := os.Stat(m.ConfigPath); err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("backup: error checking config path: %v", err)
		}
		return
	}

	if err := m.archive(ctx, now); err != nil {
		log.Warnf("backup: error archiving config: %v", err)
		return
	}

	m.lastRun = now
}

// archive ensures RepoDir is a git repository, copies the config into it,
// and commits the result.
func (m *Module) archive(ctx context.Context, now time.Time) error {
	if _, err := os.Stat(filepath.Join(m.RepoDir, ".git")); err != nil {
		if err := os.MkdirAll(m.RepoDir, 0700); err != nil {
			return fmt.Errorf("error creating backup repo dir: %w", err)
		}

		if _, err := utils.RunCommand(ctx, []string{"git", "-C", m.RepoDir, "init"}); err != nil {
			return fmt.Errorf("error initializing backup repo: %w", err)
		}
	}

	dst := filepath.Join(m.RepoDir, filepath.Base(m.ConfigPath))
	if err := utils.CopyFile(m.ConfigPath, dst, 0600); err != nil {
		return fmt.Errorf("error copying config into backup repo: %w", err)
	}

	if _, err := utils.RunCommand(ctx, []string{"git", "-C", m.RepoDir, "add", filepath.Base(m.ConfigPath)}); err != nil {
		return fmt.Errorf("error staging config in backup repo: %w", err)
	}

	message := fmt.Sprintf("config snapshot %s", now.UTC().Format(time.RFC3339))
	_, err := utils.RunCommand(ctx, []string{
		"git", "-C", m.RepoDir,
		"-c", "user.name=sentinel",
		"-c", "user.email=sentinel@localhost",
		"commit", "--allow-empty-message", "--quiet", "-m", message,
	})
	if err != nil {
		return fmt.Errorf("error committing backup: %w", err)
	}

	out, err := utils.RunCommand(ctx, []string{"git", "-C", m.RepoDir, "rev-parse", "--short", "HEAD"})
	if err != nil {
		return fmt.Errorf("error reading backup commit hash: %w", err)
	}

	m.lastCommit = strings.TrimSpace(string(out))

	return nil
}

// Status reports the last archive run and commit hash, for the `status`
// CLI command's backup archiver section.
func (m *Module) Status() (lastRun time.Time, lastCommit string) {
	return m.lastRun, m.lastCommit
}

// ReadStatus reads the last commit time and short hash directly out of
// repoDir's git history, for `status` CLI invocations that run in a
// separate process from the live supervisor and so cannot see a Module's
// in-memory lastRun/lastCommit fields.
func ReadStatus(ctx context.Context, repoDir string) (lastCommit time.Time, hash string, err error) {
	if _, statErr := os.Stat(filepath.Join(repoDir, ".git")); statErr != nil {
		return time.Time{}, "", nil
	}

	out, err := utils.RunCommand(ctx, []string{"git", "-C", repoDir, "log", "-1", "--format=%cI%x00%h"})
	if err != nil {
		return time.Time{}, "", fmt.Errorf("error reading backup repo history: %w", err)
	}

	fields := strings.SplitN(strings.TrimSpace(string(out)), "\x00", 2)
	if len(fields) != 2 {
		return time.Time{}, "", fmt.Errorf("unexpected git log output: %q", out)
	}

	lastCommit, err = time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("error parsing commit time: %w", err)
	}

	return lastCommit, fields[1], nil
}
