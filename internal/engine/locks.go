package engine

import "sync"

// sessionLocks hands out one mutex per session id so every engine call for
// a given session runs as a single writer. Entries are kept for the process
// lifetime; the table is bounded by the number of distinct sessions a
// single instance touches.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *sessionLocks) lock(sessionID int64) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
