package errno

import "errors"

// testErrno replaces the thread local errno so that tests do not depend on
// which thread the goroutine runs.
var testErrno int

func init() {
	getErrno = func() int { return testErrno }
	unsetErrno = func() { testErrno = 0 }
}

// Set sets errno to err, which must be nil or an [Error].
func Set(err error) {
	if mu.TryLock() {
		mu.Unlock()
		panic("Using errno without locking!")
	}

	var errno Error
	if err != nil && !errors.As(err, &errno) {
		panic("Not a valid errno value")
	}
	testErrno = int(errno)
}
