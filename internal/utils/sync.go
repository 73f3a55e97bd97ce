package utils

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield is how many failed acquisition attempts SpinMutex makes before it starts
// yielding the processor between attempts
const spinsBeforeYield = 64

// SpinMutex is a busy-waiting, non-reentrant mutual exclusion lock. A holder that tries to
// take the lock a second time spins forever. The zero value is unlocked.
type SpinMutex struct {
	locked atomic.Bool
}

func (m *SpinMutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

func (m *SpinMutex) Lock() {
	for spins := 0; !m.TryLock(); spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
		}
	}
}

func (m *SpinMutex) Unlock() {
	if !m.locked.CompareAndSwap(true, false) {
		panic("unlock of unlocked SpinMutex")
	}
}

// IsLocked reports whether the lock is currently held by anyone
func (m *SpinMutex) IsLocked() bool {
	return m.locked.Load()
}
