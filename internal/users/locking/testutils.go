package userslocking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ubuntu/gopasswd/internal/testsdetection"
	"github.com/ubuntu/gopasswd/log"
)

var (
	overrideLocked atomic.Bool

	overriddenMu              sync.Mutex
	overriddenWriteLockImpl   []func() error
	overriddenWriteUnlockImpl []func() error
	overriddenMaxWait         []time.Duration
)

// Z_ForTests_OverrideLocking replaces lckpwdf with an in-process lock so that
// tests can rewrite account files without root privileges.
// Use [Z_ForTests_RestoreLocking] once done with it.
//
// nolint:revive,nolintlint // We want to use underscores in the function name here.
func Z_ForTests_OverrideLocking() {
	testsdetection.MustBeTesting()

	overriddenMu.Lock()
	defer overriddenMu.Unlock()

	overriddenMaxWait = append(overriddenMaxWait, maxWait)
	overriddenWriteLockImpl = append(overriddenWriteLockImpl, writeLockImpl)
	writeLockImpl = func() error {
		if !overrideLocked.CompareAndSwap(false, true) {
			return fmt.Errorf("%w: already locked", ErrLock)
		}

		log.Debug(context.Background(), "TestOverride: account files locked")
		return nil
	}

	overriddenWriteUnlockImpl = append(overriddenWriteUnlockImpl, writeUnlockImpl)
	writeUnlockImpl = func() error {
		if !overrideLocked.CompareAndSwap(true, false) {
			return fmt.Errorf("%w: already unlocked", ErrUnlock)
		}

		log.Debug(context.Background(), "TestOverride: account files unlocked")
		return nil
	}
}

// Z_ForTests_OverrideLockingWithCleanup is [Z_ForTests_OverrideLocking]
// restored automatically once the test is completed.
//
// nolint:revive,nolintlint // We want to use underscores in the function name here.
func Z_ForTests_OverrideLockingWithCleanup(t *testing.T) {
	t.Helper()

	testsdetection.MustBeTesting()

	Z_ForTests_OverrideLocking()
	t.Cleanup(Z_ForTests_RestoreLocking)
}

// Z_ForTests_OverrideLockingAsLockedExternally simulates another process
// holding the lock forever: [WriteLock] times out after wait.
// The override is restored once the test is completed.
//
// nolint:revive,nolintlint // We want to use underscores in the function name here.
func Z_ForTests_OverrideLockingAsLockedExternally(t *testing.T, wait time.Duration) {
	t.Helper()

	testsdetection.MustBeTesting()

	overriddenMu.Lock()
	defer overriddenMu.Unlock()

	overriddenMaxWait = append(overriddenMaxWait, maxWait)
	maxWait = wait

	blocked := make(chan struct{})
	overriddenWriteLockImpl = append(overriddenWriteLockImpl, writeLockImpl)
	writeLockImpl = func() error {
		<-blocked
		return fmt.Errorf("%w: external lock released", ErrLock)
	}

	overriddenWriteUnlockImpl = append(overriddenWriteUnlockImpl, writeUnlockImpl)
	writeUnlockImpl = func() error {
		return fmt.Errorf("%w: locked by another process", ErrUnlock)
	}

	t.Cleanup(func() {
		close(blocked)
		Z_ForTests_RestoreLocking()
	})
}

// Z_ForTests_RestoreLocking restores the locking functions overridden by
// the last Z_ForTests_OverrideLocking* call.
//
// nolint:revive,nolintlint // We want to use underscores in the function name here.
func Z_ForTests_RestoreLocking() {
	testsdetection.MustBeTesting()

	if overrideLocked.Load() {
		panic("Lock has not been released before restoring!")
	}

	overriddenMu.Lock()
	defer overriddenMu.Unlock()

	n := len(overriddenWriteLockImpl) - 1
	writeLockImpl, overriddenWriteLockImpl = overriddenWriteLockImpl[n], overriddenWriteLockImpl[:n]
	writeUnlockImpl, overriddenWriteUnlockImpl = overriddenWriteUnlockImpl[n], overriddenWriteUnlockImpl[:n]
	maxWait, overriddenMaxWait = overriddenMaxWait[n], overriddenMaxWait[:n]
}
