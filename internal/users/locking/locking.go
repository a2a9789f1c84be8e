// Package userslocking takes the system lock on the local account files
// (/etc/passwd, /etc/group, /etc/shadow, /etc/gshadow) with the libc
// lckpwdf() function, as shadow-utils do before rewriting them.
package userslocking

import (
	"errors"
	"fmt"
	"time"
)

var (
	writeLockImpl   = writeLock
	writeUnlockImpl = writeUnlock

	// maxWait is how long we wait for the lock. lckpwdf gives up after 15
	// seconds but relies on SIGALRM, which the Go runtime may swallow.
	maxWait = 16 * time.Second
)

var (
	// ErrLock is returned when the account database cannot be locked.
	ErrLock = errors.New("failed to lock the system's user database")

	// ErrUnlock is returned when the account database cannot be unlocked.
	ErrUnlock = errors.New("failed to unlock the system's user database")

	// ErrLockTimeout is returned when the lock was not obtained in time.
	ErrLockTimeout = fmt.Errorf("%w: timeout", ErrLock)
)

// WriteLock locks the local account files for writing.
// Readers are not blocked, but any other process calling lckpwdf() waits
// until [WriteUnlock] is called. Locking twice from the same process fails.
func WriteLock() error {
	done := make(chan error, 1)
	writeLockImpl := writeLockImpl

	go func() {
		done <- writeLockImpl()
	}()

	select {
	case <-time.After(maxWait):
		return ErrLockTimeout
	case err := <-done:
		return err
	}
}

// WriteUnlock releases the lock taken by [WriteLock].
func WriteUnlock() error {
	return writeUnlockImpl()
}

// WithLock runs fn while holding the write lock. The unlock error is
// returned only when fn succeeded.
func WithLock(fn func() error) (err error) {
	if err := WriteLock(); err != nil {
		return err
	}
	defer func() {
		if unlockErr := WriteUnlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	return fn()
}
