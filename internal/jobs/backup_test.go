package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileSnapshotter struct {
	calls atomic.Int32
	err   error
}

func (s *fileSnapshotter) Backup(_ context.Context, dest string) error {
	s.calls.Add(1)
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(dest, []byte("snapshot"), 0o644)
}

func TestBackupJob_SnapshotAndPrune(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	job := NewBackupJob(&fileSnapshotter{}, BackupConfig{Dir: dir, Retention: 7 * 24 * time.Hour}, testLogger())
	job.now = func() time.Time { return now }

	path, err := job.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "goeat_20260310_040000.db"), path)

	old := filepath.Join(dir, "goeat_20260101_040000.db")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	require.NoError(t, os.Chtimes(old, now.AddDate(0, 0, -30), now.AddDate(0, 0, -30)))

	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, now.AddDate(0, 0, -30), now.AddDate(0, 0, -30)))

	// The fresh snapshot has a real mtime; pin it to now so the cutoff is deterministic.
	require.NoError(t, os.Chtimes(path, now, now))

	deleted, err := job.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, old)
	assert.FileExists(t, path)
	assert.FileExists(t, unrelated)
}

func TestBackupJob_ZeroRetentionKeepsEverything(t *testing.T) {
	job := NewBackupJob(&fileSnapshotter{}, BackupConfig{Dir: t.TempDir()}, testLogger())
	deleted, err := job.Prune()
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestBackupJob_SnapshotError(t *testing.T) {
	job := NewBackupJob(&fileSnapshotter{err: errors.New("disk full")}, BackupConfig{Dir: t.TempDir()}, testLogger())
	_, err := job.Snapshot(context.Background())
	assert.EqualError(t, err, "disk full")
}

func TestBackupJob_RunStopsWithContext(t *testing.T) {
	store := &fileSnapshotter{}
	job := NewBackupJob(store, BackupConfig{Dir: t.TempDir(), Interval: 20 * time.Millisecond}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx, 0)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("backup loop did not stop")
	}
}
