// Package sessions tracks live interview connections so the proctoring
// socket can reach its paired interview loop and shutdown can drain both.
package sessions

import (
	"context"
	"sync"

	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Handle is the control surface a running interview loop registers.
type Handle struct {
	// Cancel asks the loop to stop.
	Cancel func()

	// Violation delivers a proctoring violation into the loop.
	Violation func(interview.ViolationRecord)
}

// Tracker is a concurrency-safe registry of live sessions.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*trackedSession
	wg       sync.WaitGroup
}

type trackedSession struct {
	handle Handle
	once   sync.Once
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*trackedSession)}
}

// Register adds a session handle and returns its unregister function. A
// second registration for the same id supersedes the first.
func (t *Tracker) Register(sessionID string, h Handle) (unregister func()) {
	if t == nil {
		return func() {}
	}

	entry := &trackedSession{handle: h}

	t.mu.Lock()
	if t.sessions == nil {
		t.sessions = make(map[string]*trackedSession)
	}
	old := t.sessions[sessionID]
	t.sessions[sessionID] = entry
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(sessionID, old)
	}

	return func() { t.unregister(sessionID, entry) }
}

func (t *Tracker) unregister(sessionID string, entry *trackedSession) {
	if t == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		t.mu.Lock()
		if t.sessions != nil && t.sessions[sessionID] == entry {
			delete(t.sessions, sessionID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

// Count returns the number of live sessions.
func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// ReportViolation routes a violation to the interview loop for sessionID.
// It reports whether a live loop received it.
func (t *Tracker) ReportViolation(sessionID string, v interview.ViolationRecord) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	entry := t.sessions[sessionID]
	t.mu.Unlock()
	if entry == nil || entry.handle.Violation == nil {
		return false
	}
	entry.handle.Violation(v)
	return true
}

// CancelAll asks every live loop to stop.
func (t *Tracker) CancelAll() (canceled int) {
	if t == nil {
		return 0
	}

	var cancels []func()
	t.mu.Lock()
	for _, entry := range t.sessions {
		if entry == nil || entry.handle.Cancel == nil {
			continue
		}
		cancels = append(cancels, entry.handle.Cancel)
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		canceled++
	}
	return canceled
}

// Wait blocks until every registered session unregisters or ctx expires.
// It reports whether the drain completed.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	if ctx == nil {
		t.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
