package command

import "sync"

// LedgerLock serializes every read-modify-write cycle against the ledger store.
// Foreground study reports and background rollup jobs share one instance, so a
// rollup can never interleave with a concurrent activity report and lose an
// update. The target scale does not need per-user locking.
//
// Nothing slow may run under the lock: persistence is a bounded local call and
// announcements are delivered by the event handler after release.
type LedgerLock struct {
	mu sync.Mutex
}

// NewLedgerLock creates the process-wide ledger lock.
func NewLedgerLock() *LedgerLock {
	return &LedgerLock{}
}

// Do runs fn as a single critical section.
func (l *LedgerLock) Do(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}
