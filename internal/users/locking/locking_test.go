package userslocking_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	userslocking "github.com/ubuntu/gopasswd/internal/users/locking"
)

func TestUsersLockingOverride(t *testing.T) {
	// This cannot be parallel.

	userslocking.Z_ForTests_OverrideLockingWithCleanup(t)

	err := userslocking.WriteLock()
	require.NoError(t, err, "Locking should be allowed")

	err = userslocking.WriteLock()
	require.ErrorIs(t, err, userslocking.ErrLock, "Locking again should not be allowed")

	err = userslocking.WriteUnlock()
	require.NoError(t, err, "Unlocking should be allowed")

	err = userslocking.WriteUnlock()
	require.ErrorIs(t, err, userslocking.ErrUnlock, "Unlocking unlocked should not be allowed")
}

func TestUsersLockingOverrideAsLockedExternally(t *testing.T) {
	// This cannot be parallel.

	userslocking.Z_ForTests_OverrideLockingAsLockedExternally(t, 100*time.Millisecond)

	start := time.Now()
	err := userslocking.WriteLock()
	require.ErrorIs(t, err, userslocking.ErrLockTimeout, "Locking should time out")
	require.ErrorIs(t, err, userslocking.ErrLock, "Timeout should be a locking error")
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond, "Locking returned before the timeout")
}

func TestWithLock(t *testing.T) {
	// This cannot be parallel.

	errCallback := errors.New("callback error")

	tests := map[string]struct {
		fnErr            error
		lockedExternally bool

		wantErr error
	}{
		"Runs_callback_while_locked": {},

		"Error_when_callback_fails":   {fnErr: errCallback, wantErr: errCallback},
		"Error_when_lock_is_not_free": {lockedExternally: true, wantErr: userslocking.ErrLockTimeout},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if tc.lockedExternally {
				userslocking.Z_ForTests_OverrideLockingAsLockedExternally(t, 50*time.Millisecond)
			} else {
				userslocking.Z_ForTests_OverrideLockingWithCleanup(t)
			}

			called := false
			err := userslocking.WithLock(func() error {
				called = true
				// Locking again from the callback must fail: we hold the lock.
				require.ErrorIs(t, userslocking.WriteLock(), userslocking.ErrLock, "Lock should be held")
				return tc.fnErr
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr, "WithLock returned an unexpected error")
				require.Equal(t, !tc.lockedExternally, called, "Callback called unexpectedly")
				return
			}
			require.NoError(t, err, "WithLock should not fail")
			require.True(t, called, "Callback should have been called")

			// The lock must have been released.
			require.NoError(t, userslocking.WriteLock(), "Locking after WithLock should be allowed")
			require.NoError(t, userslocking.WriteUnlock(), "Unlocking should be allowed")
		})
	}
}

func TestRealLockRequiresRoot(t *testing.T) {
	// This cannot be parallel: it takes the real system lock.

	if os.Geteuid() == 0 {
		err := userslocking.WriteLock()
		require.NoError(t, err, "Locking as root should be allowed")
		require.NoError(t, userslocking.WriteUnlock(), "Unlocking should be allowed")
		return
	}

	err := userslocking.WriteLock()
	require.ErrorIs(t, err, userslocking.ErrLock, "Locking without privileges should fail")
}
