package lock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"

	"github.com/cockroachdb/errors"
)

// PostgresDistributedLockManager uses session-level advisory locks. Each held lock pins its
// own connection from the pool, since the lock belongs to the session that took it.
type PostgresDistributedLockManager struct {
	db *sql.DB

	mu    sync.Mutex
	conns map[int]*sql.Conn
}

func NewPostgresDistributedLockManager(db *sql.DB) *PostgresDistributedLockManager {
	return &PostgresDistributedLockManager{
		db:    db,
		conns: make(map[int]*sql.Conn),
	}
}

func (l *PostgresDistributedLockManager) Acquire(ctx context.Context, lockID int) error {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to acquire lock: open connection")
	}

	if _, err = conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		// A cancelled wait may still be granted server-side.
		discard(conn)
		return errors.Wrapf(err, "failed to acquire lock %d", lockID)
	}

	return l.hold(lockID, conn)
}

func (l *PostgresDistributedLockManager) TryAcquire(ctx context.Context, lockID int) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire lock: open connection")
	}

	var acquired bool
	if err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		_ = conn.Close()
		return false, errors.Wrapf(err, "failed to acquire lock %d", lockID)
	}
	if !acquired {
		_ = conn.Close()
		return false, nil
	}

	return true, l.hold(lockID, conn)
}

func (l *PostgresDistributedLockManager) Release(ctx context.Context, lockID int) error {
	l.mu.Lock()
	conn, ok := l.conns[lockID]
	delete(l.conns, lockID)
	l.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrNotHeld, "lock %d", lockID)
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID); err != nil {
		discard(conn)
		return errors.Wrapf(err, "failed to release lock %d", lockID)
	}
	return conn.Close()
}

// discard closes the physical connection instead of returning it to the pool. Ending the
// session is the only way to drop an advisory lock that could not be unlocked.
func discard(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

func (l *PostgresDistributedLockManager) hold(lockID int, conn *sql.Conn) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.conns[lockID]; exists {
		_ = conn.Close()
		return errors.Newf("lock %d already held by this instance", lockID)
	}
	l.conns[lockID] = conn
	return nil
}
