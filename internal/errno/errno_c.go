// Package errno gives access to the C errno value set by libc calls made
// through cgo.
package errno

/*
#include <errno.h>
#include <string.h>

static void unset_errno(void) {
  errno = 0;
}

static int get_errno(void) {
  return errno;
}
*/
import "C"

import (
	"sync"
)

// Error is a C errno value.
type Error C.int

func (errno Error) Error() string {
	return C.GoString(C.strerror(C.int(errno)))
}

const (
	// ErrIntr is EINTR, set by lckpwdf when its alarm fires.
	ErrIntr Error = C.EINTR
	// ErrAcces is EACCES.
	ErrAcces Error = C.EACCES
	// ErrPerm is EPERM.
	ErrPerm Error = C.EPERM
	// ErrNoEnt is ENOENT.
	ErrNoEnt Error = C.ENOENT
)

var (
	getErrno   = func() int { return int(C.get_errno()) }
	unsetErrno = func() { C.unset_errno() }
)

// errno is per thread, but goroutines are not: callers serialize their
// libc calls with this mutex.
var mu sync.Mutex

// Lock reserves errno and resets it.
func Lock() {
	mu.Lock()
	unsetErrno()
}

// Unlock resets errno and releases it.
func Unlock() {
	unsetErrno()
	mu.Unlock()
}

// Get returns the current errno as [Error], or nil if it is unset.
// It panics if called without [Lock].
func Get() error {
	if mu.TryLock() {
		mu.Unlock()
		panic("Using errno without locking!")
	}
	if errno := getErrno(); errno != 0 {
		return Error(errno)
	}
	return nil
}
