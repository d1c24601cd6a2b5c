package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrBackupUnsupported is returned by Backup for drivers other than sqlite3.
var ErrBackupUnsupported = errors.New("backup is only supported for sqlite3")

// Backup writes a consistent snapshot of the database to dest.
// dest must not exist yet.
func (db *DB) Backup(ctx context.Context, dest string) error {
	if db.DriverName() != DriverSQLite {
		return ErrBackupUnsupported
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}
