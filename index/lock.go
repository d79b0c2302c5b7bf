package index

import "sync/atomic"

// BuildLock provides non-blocking lock semantics for one group's index build.
// A trigger that fails to acquire the lock marks the build dirty so the holder
// runs once more before releasing.
type BuildLock struct {
	state atomic.Int32 // 0 = idle, 1 = building
	dirty atomic.Bool
}

// TryAcquire marks the lock dirty and then attempts to acquire it without
// blocking. The flag is set before the attempt so a holder releasing concurrently
// either sees it or leaves the lock free for this caller. A successful caller
// clears the flag with TakeDirty before building.
func (l *BuildLock) TryAcquire() bool {
	l.dirty.Store(true)
	return l.state.CompareAndSwap(0, 1)
}

// TakeDirty reports and clears the dirty flag.
// Must only be called by the goroutine holding the lock.
func (l *BuildLock) TakeDirty() bool {
	return l.dirty.Swap(false)
}

// Release releases the lock. It returns false, keeping the lock held, when another
// trigger arrived in the meantime and the caller must build again.
func (l *BuildLock) Release() bool {
	l.state.Store(0)
	if l.dirty.Load() && l.state.CompareAndSwap(0, 1) {
		return false
	}
	return true
}

// Building reports whether a build currently holds the lock.
func (l *BuildLock) Building() bool {
	return l.state.Load() == 1
}
