package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"goeat/internal/metrics"
)

const backupPrefix = "goeat_"

// Snapshotter writes a database snapshot to a new file.
type Snapshotter interface {
	Backup(ctx context.Context, dest string) error
}

type BackupConfig struct {
	Dir       string
	Interval  time.Duration
	Retention time.Duration
}

// BackupJob snapshots the store on a fixed interval and prunes old snapshots.
type BackupJob struct {
	store  Snapshotter
	config BackupConfig
	now    func() time.Time
	logger zerolog.Logger
}

func NewBackupJob(store Snapshotter, cfg BackupConfig, logger zerolog.Logger) *BackupJob {
	if cfg.Dir == "" {
		cfg.Dir = "backups"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &BackupJob{
		store:  store,
		config: cfg,
		now:    time.Now,
		logger: logger.With().Str("component", "backup").Logger(),
	}
}

// Run takes the first snapshot after delay, then one per interval until ctx is done.
func (j *BackupJob) Run(ctx context.Context, delay time.Duration) {
	select {
	case <-time.After(delay):
		j.runOnce(ctx)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (j *BackupJob) runOnce(ctx context.Context) {
	_, err := j.Snapshot(ctx)
	if err == nil {
		_, err = j.Prune()
	}
	metrics.IncJobRun("backup", err)
	if err != nil {
		j.logger.Error().Err(err).Msg("backup failed")
	}
}

// Snapshot writes one timestamped snapshot and returns its path.
func (j *BackupJob) Snapshot(ctx context.Context) (string, error) {
	dest := filepath.Join(j.config.Dir, backupPrefix+j.now().Format("20060102_150405")+".db")
	if err := j.store.Backup(ctx, dest); err != nil {
		return "", err
	}
	j.logger.Info().Str("path", dest).Msg("backup completed")
	return dest, nil
}

// Prune removes snapshots older than the retention period.
// Zero retention keeps everything.
func (j *BackupJob) Prune() (int, error) {
	if j.config.Retention <= 0 {
		return 0, nil
	}

	files, err := os.ReadDir(j.config.Dir)
	if err != nil {
		return 0, fmt.Errorf("read backup dir: %w", err)
	}

	cutoff := j.now().Add(-j.config.Retention)
	deleted := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasPrefix(f.Name(), backupPrefix) {
			continue
		}
		info, err := f.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.config.Dir, f.Name())); err != nil {
			return deleted, fmt.Errorf("remove %s: %w", f.Name(), err)
		}
		deleted++
	}

	if deleted > 0 {
		j.logger.Info().Int("deleted", deleted).Msg("old backups removed")
	}
	return deleted, nil
}
