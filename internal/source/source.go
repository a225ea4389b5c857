// Package source provides ActivitySource implementations that do not
// touch the OS. The real screen/window poller is a separate capture
// process; the daemon consumes whatever source it is given.
package source

// #region imports
import (
	"context"
	"errors"
	"sync"
	"time"

	"refocusd/internal/activity"
)

// #endregion

// #region interface

// ErrExhausted means the source has no further observations and never
// will; the engine should shut down the loop.
var ErrExhausted = errors.New("activity source exhausted")

// Source reports the current foreground activity. Current may fail
// transiently (a missing OS permission, a dropped pipe); the engine
// skips the tick and keeps going.
type Source interface {
	Current(ctx context.Context) (activity.Snapshot, error)
	CheckPermissions() bool
}

// #endregion

// #region scripted

// Scripted replays a fixed list of snapshots, one per call.
type Scripted struct {
	mu    sync.Mutex
	snaps []activity.Snapshot
	next  int
}

// NewScripted returns a source that replays snaps in order.
func NewScripted(snaps ...activity.Snapshot) *Scripted {
	return &Scripted{snaps: snaps}
}

// Current implements Source, returning ErrExhausted past the end.
func (s *Scripted) Current(_ context.Context) (activity.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.snaps) {
		return activity.Snapshot{}, ErrExhausted
	}
	snap := s.snaps[s.next]
	s.next++
	return snap, nil
}

// CheckPermissions implements Source.
func (s *Scripted) CheckPermissions() bool { return true }

// #endregion

// #region func-source

// Func adapts a closure into a Source, for tests and embedding.
type Func func(ctx context.Context) (activity.Snapshot, error)

// Current implements Source.
func (f Func) Current(ctx context.Context) (activity.Snapshot, error) { return f(ctx) }

// CheckPermissions implements Source.
func (f Func) CheckPermissions() bool { return true }

// #endregion

// #region stamping

// Stamped wraps a source and fills in missing timestamps from a clock,
// so scripted fixtures may omit them.
type Stamped struct {
	inner Source
	clock func() time.Time
}

// NewStamped wraps inner; a nil clock means time.Now.
func NewStamped(inner Source, clock func() time.Time) *Stamped {
	if clock == nil {
		clock = time.Now
	}
	return &Stamped{inner: inner, clock: clock}
}

// Current implements Source.
func (s *Stamped) Current(ctx context.Context) (activity.Snapshot, error) {
	snap, err := s.inner.Current(ctx)
	if err != nil {
		return snap, err
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = s.clock()
	}
	return snap, nil
}

// CheckPermissions implements Source.
func (s *Stamped) CheckPermissions() bool { return s.inner.CheckPermissions() }

// #endregion
