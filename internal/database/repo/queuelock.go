package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"playlistdl/internal/domain/consts"
	"playlistdl/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// ErrQueueLocked is returned when another live process holds the queue.
var ErrQueueLocked = errors.New("download queue is held by another process")

// QueueHolder describes the process driving the download queue.
type QueueHolder struct {
	PID        int
	Host       string
	Command    string
	AcquiredAt time.Time
	Heartbeat  time.Time
}

// Stale reports whether the holder stopped renewing its lease.
func (h *QueueHolder) Stale(now time.Time) bool {
	return now.Sub(h.Heartbeat) > consts.StaleProcessThreshold
}

// QueueLock is the single-writer lease on the saved queue.
//
// Only the holder may restore and write queue snapshots. A holder that dies
// without releasing is taken over once its heartbeat goes stale.
type QueueLock struct {
	DB  *sql.DB
	PID int
}

// NewQueueLock returns a lease handle for this process.
func NewQueueLock(db *sql.DB) *QueueLock {
	return &QueueLock{
		DB:  db,
		PID: os.Getpid(),
	}
}

// Acquire claims the queue for command, taking over a stale holder.
func (l *QueueLock) Acquire(ctx context.Context, command string) error {
	prev, err := readHolder(ctx, l.DB)
	if err != nil {
		return fmt.Errorf("failed to read queue lock: %w", err)
	}
	host, _ := os.Hostname()
	now := time.Now()

	query := squirrel.
		Update(consts.DBQueueLock).
		Set(consts.QLockPID, l.PID).
		Set(consts.QLockHost, host).
		Set(consts.QLockCommand, command).
		Set(consts.QLockAcquiredAt, now.UnixNano()).
		Set(consts.QLockHeartbeat, now.UnixNano()).
		Where(squirrel.Eq{consts.QLockID: 1}).
		Where(squirrel.Or{
			squirrel.Eq{consts.QLockPID: 0},
			squirrel.Eq{consts.QLockPID: l.PID},
			squirrel.Lt{consts.QLockHeartbeat: now.Add(-consts.StaleProcessThreshold).UnixNano()},
		}).
		RunWith(l.DB)

	res, err := query.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to claim queue lock: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to claim queue lock: %w", err)
	} else if n == 0 {
		holder, err := readHolder(ctx, l.DB)
		if err != nil || holder == nil {
			return ErrQueueLocked
		}
		return fmt.Errorf("%w: PID %d on %s running %q since %s",
			ErrQueueLocked, holder.PID, holder.Host, holder.Command, holder.AcquiredAt.Format(time.DateTime))
	}

	if prev != nil && prev.PID != l.PID && prev.Stale(now) {
		logging.I("Took over download queue from stale PID %d (last heartbeat %s)", prev.PID, prev.Heartbeat.Format(time.DateTime))
	}
	return nil
}

// Renew refreshes the lease heartbeat.
func (l *QueueLock) Renew(ctx context.Context) error {
	query := squirrel.
		Update(consts.DBQueueLock).
		Set(consts.QLockHeartbeat, time.Now().UnixNano()).
		Where(squirrel.Eq{consts.QLockID: 1, consts.QLockPID: l.PID}).
		RunWith(l.DB)

	res, err := query.ExecContext(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("queue lock for PID %d was taken over", l.PID)
	}
	return nil
}

// Release frees the lease if this process still holds it.
func (l *QueueLock) Release(ctx context.Context) error {
	query := squirrel.
		Update(consts.DBQueueLock).
		Set(consts.QLockPID, 0).
		Set(consts.QLockCommand, "").
		Where(squirrel.Eq{consts.QLockID: 1, consts.QLockPID: l.PID}).
		RunWith(l.DB)

	res, err := query.ExecContext(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("queue lock is not held by PID %d", l.PID)
	}
	logging.D(1, "Released download queue for PID %d", l.PID)
	return nil
}

// QueueHolder returns the current lease holder, or nil when the queue is free.
func (s *Store) QueueHolder(ctx context.Context) (*QueueHolder, error) {
	return readHolder(ctx, s.DB)
}

// ******************************** Private ********************************

// readHolder loads the lease row, returning nil when nobody holds it.
func readHolder(ctx context.Context, db *sql.DB) (*QueueHolder, error) {
	query := squirrel.
		Select(consts.QLockPID, consts.QLockHost, consts.QLockCommand, consts.QLockAcquiredAt, consts.QLockHeartbeat).
		From(consts.DBQueueLock).
		Where(squirrel.Eq{consts.QLockID: 1}).
		RunWith(db)

	var (
		h         QueueHolder
		host      sql.NullString
		command   sql.NullString
		acquired  int64
		heartbeat int64
	)
	if err := query.QueryRowContext(ctx).Scan(&h.PID, &host, &command, &acquired, &heartbeat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if h.PID == 0 {
		return nil, nil
	}
	h.Host = host.String
	h.Command = command.String
	h.AcquiredAt = time.Unix(0, acquired)
	h.Heartbeat = time.Unix(0, heartbeat)
	return &h, nil
}
