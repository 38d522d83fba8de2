package eventlog

import (
	"context"
	"time"
)

// Changed returns a channel closed by the next successful Append.
func (l *Log) Changed() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notifyCh
}

// WaitForAppend blocks until a new append occurs, timeout elapses, or ctx is
// done. It returns true only when woken by an append. A non-positive timeout
// waits on ctx alone.
func (l *Log) WaitForAppend(ctx context.Context, timeout time.Duration) bool {
	ch := l.Changed()
	if timeout <= 0 {
		select {
		case <-ch:
			return true
		case <-ctx.Done():
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
