// Package store keeps live interview sessions. Process memory is the
// authoritative tier during a session; an optional durable tier receives
// best-effort mirrors and the final report.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/intervue-ai/intervue/pkg/core"
	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Durable is the persistence tier behind the in-process map. Implementations
// must be safe for concurrent use.
type Durable interface {
	SaveSession(ctx context.Context, rec interview.Record) error
	LoadSession(ctx context.Context, id string) (interview.Record, error)
	SaveReport(ctx context.Context, rep interview.Report, status string) error
	LoadReport(ctx context.Context, id string) (interview.Report, error)
}

// Config holds store construction parameters.
type Config struct {
	// MirrorTimeout bounds each asynchronous durable write.
	MirrorTimeout time.Duration
}

// Dependencies holds store collaborators.
type Dependencies struct {
	// Durable is optional. Nil means memory-only operation.
	Durable Durable
	Logger  *slog.Logger
}

// Store is the two-tier session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*interview.Session
	reports  map[string]interview.Report

	durable       Durable
	logger        *slog.Logger
	mirrorTimeout time.Duration

	mirrors sync.WaitGroup
}

// New creates a Store. A nil durable tier is valid.
func New(cfg Config, deps Dependencies) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mirrorTimeout := cfg.MirrorTimeout
	if mirrorTimeout <= 0 {
		mirrorTimeout = 10 * time.Second
	}
	return &Store{
		sessions:      make(map[string]*interview.Session),
		reports:       make(map[string]interview.Report),
		durable:       deps.Durable,
		logger:        logger,
		mirrorTimeout: mirrorTimeout,
	}
}

// Put registers a live session.
func (s *Store) Put(sess *interview.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

// Get returns the live session for id. When the session is not in memory it
// is read through from the durable tier, rehydrated, and cached.
func (s *Store) Get(ctx context.Context, id string) (*interview.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if s.durable == nil {
		return nil, core.NewNotFoundError("session not found: " + id)
	}
	rec, err := s.durable.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another caller may have rehydrated while we were reading.
	if cached, ok := s.sessions[id]; ok {
		return cached, nil
	}
	sess = interview.FromRecord(rec)
	s.sessions[id] = sess
	return sess, nil
}

// Evict drops a session from the memory tier. The durable snapshot, if any,
// is untouched.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Mirror writes a session snapshot to the durable tier synchronously.
func (s *Store) Mirror(ctx context.Context, sess *interview.Session) error {
	if s.durable == nil {
		return nil
	}
	return s.durable.SaveSession(ctx, sess.Snapshot())
}

// MirrorAsync mirrors a session snapshot in the background. Failures are
// logged and never surface to the live dialogue.
func (s *Store) MirrorAsync(sess *interview.Session) {
	if s.durable == nil {
		return
	}
	rec := sess.Snapshot()
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.mirrorTimeout)
		defer cancel()
		if err := s.durable.SaveSession(ctx, rec); err != nil {
			s.logger.Warn("session mirror failed",
				slog.String("session_id", rec.ID),
				slog.String("error", err.Error()))
		}
	}()
}

// PutReport stores the final report, upserting the durable row keyed by
// session id. The memory copy is written even when the durable write fails.
func (s *Store) PutReport(ctx context.Context, rep interview.Report, status string) error {
	s.mu.Lock()
	s.reports[rep.SessionID] = rep
	s.mu.Unlock()

	if s.durable == nil {
		return nil
	}
	return s.durable.SaveReport(ctx, rep, status)
}

// Report returns the report for a session, reading through to the durable
// tier when absent from memory.
func (s *Store) Report(ctx context.Context, id string) (interview.Report, error) {
	s.mu.RLock()
	rep, ok := s.reports[id]
	s.mu.RUnlock()
	if ok {
		return rep, nil
	}
	if s.durable == nil {
		return interview.Report{}, core.NewNotFoundError("report not found: " + id)
	}
	return s.durable.LoadReport(ctx, id)
}

// Wait blocks until all in-flight asynchronous mirrors have finished.
func (s *Store) Wait() {
	s.mirrors.Wait()
}
