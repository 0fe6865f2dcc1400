// Package lifecycle holds the process lifecycle state shared across
// handlers. During graceful shutdown the gateway stops admitting new
// interviews while live ones finish.
package lifecycle

import "sync/atomic"

type Lifecycle struct {
	draining atomic.Bool
}

func (l *Lifecycle) SetDraining(draining bool) {
	if l == nil {
		return
	}
	l.draining.Store(draining)
}

func (l *Lifecycle) IsDraining() bool {
	if l == nil {
		return false
	}
	return l.draining.Load()
}
