package session

import "sync"

// Locker hands out one mutex per session id. Entries are dropped once no
// goroutine holds or waits for them.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*lockEntry)}
}

// Lock blocks until the session id is free and returns its unlock func.
func (l *Locker) Lock(id int64) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
