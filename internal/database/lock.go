package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ScanLockKey is the advisory lock key held while a reminder scan runs.
const ScanLockKey int64 = 0x52454d494e44 // "REMIND"

// TryLock takes the session-level advisory lock key without waiting. The
// returned release func must be called when ok is true. SQLite databases are
// owned by a single process, so the lock is always granted there.
func (db *DB) TryLock(ctx context.Context, key int64) (release func(), ok bool, err error) {
	if db.Pool == nil {
		return func() {}, true, nil
	}

	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	release = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", key); err != nil {
			// drop the session so the server frees the lock
			slog.Error("failed to release advisory lock", "key", key, "error", err)
			conn.Conn().Close(ctx)
		}
		conn.Release()
	}
	return release, true, nil
}
