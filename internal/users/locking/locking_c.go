package userslocking

/*
#include <shadow.h>
*/
import "C"

import (
	"errors"
	"fmt"

	"github.com/ubuntu/gopasswd/internal/errno"
)

func writeLock() error {
	errno.Lock()
	defer errno.Unlock()

	if C.lckpwdf() == 0 {
		return nil
	}

	err := errno.Get()
	if errors.Is(err, errno.ErrIntr) {
		// SIGALRM from lckpwdf itself.
		return ErrLockTimeout
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLock, err)
	}
	return ErrLock
}

func writeUnlock() error {
	errno.Lock()
	defer errno.Unlock()

	if C.ulckpwdf() == 0 {
		return nil
	}

	if err := errno.Get(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnlock, err)
	}
	return ErrUnlock
}
