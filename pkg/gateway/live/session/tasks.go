package session

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// taskGroup tracks the evaluation tasks a session spawns so conclusion can
// wait for stragglers with a bound.
type taskGroup struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

func newTaskGroup(parent context.Context) *taskGroup {
	ctx, cancel := context.WithCancel(parent)
	group, ctx := errgroup.WithContext(ctx)
	return &taskGroup{group: group, ctx: ctx, cancel: cancel}
}

// Go runs fn on the group. Task panics are not recovered; evaluation code
// reports failures as neutral records instead of errors.
func (t *taskGroup) Go(fn func(ctx context.Context)) {
	t.group.Go(func() error {
		fn(t.ctx)
		return nil
	})
}

// Drain waits up to timeout for outstanding tasks. It reports whether every
// task finished; on timeout the remaining tasks are canceled and keep
// whatever they recorded so far.
func (t *taskGroup) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		_ = t.group.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		t.cancel()
		return false
	}
}
