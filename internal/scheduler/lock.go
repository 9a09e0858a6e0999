package scheduler

import "sync"

// ExecutionLock guards the "at most one run per job name" invariant. The
// check-then-set is done under a mutex so it holds under parallel dispatch,
// not just cooperative scheduling.
type ExecutionLock struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewExecutionLock creates an empty execution lock
func NewExecutionLock() *ExecutionLock {
	return &ExecutionLock{
		held: make(map[string]bool),
	}
}

// TryAcquire atomically claims the lock for a job name. Returns false when
// the name is already held; it never blocks or queues.
func (l *ExecutionLock) TryAcquire(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[name] {
		return false
	}
	l.held[name] = true
	return true
}

// Release frees the lock for a job name
func (l *ExecutionLock) Release(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
}

// Held reports whether a job name currently holds the lock
func (l *ExecutionLock) Held(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[name]
}
