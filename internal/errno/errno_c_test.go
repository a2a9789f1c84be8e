package errno_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ubuntu/gopasswd/internal/errno"
)

func TestNoError(t *testing.T) {
	t.Parallel()

	errno.Lock()
	t.Cleanup(errno.Unlock)

	require.NoError(t, errno.Get())
}

func TestGetWithoutLocking(t *testing.T) {
	// This test can't be parallel, since other tests may lock meanwhile.

	require.PanicsWithValue(t, "Using errno without locking!", func() { _ = errno.Get() })
}

func TestSetInvalidError(t *testing.T) {
	t.Parallel()

	errno.Lock()
	t.Cleanup(errno.Unlock)

	require.PanicsWithValue(t, "Not a valid errno value", func() { errno.Set(errors.New("invalid")) })
}

func TestUnlockResetsErrno(t *testing.T) {
	t.Parallel()

	errno.Lock()
	errno.Set(errno.ErrPerm)
	errno.Unlock()

	errno.Lock()
	t.Cleanup(errno.Unlock)
	require.NoError(t, errno.Get(), "Errno should be reset after unlocking")
}

func TestErrorValues(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err error

		wantMessage string
	}{
		"No_error":                  {},
		"Interrupted_system_call":   {err: errno.ErrIntr, wantMessage: "Interrupted system call"},
		"Permission_denied":         {err: errno.ErrAcces, wantMessage: "Permission denied"},
		"Operation_not_permitted":   {err: errno.ErrPerm, wantMessage: "Operation not permitted"},
		"No_such_file_or_directory": {err: errno.ErrNoEnt, wantMessage: "No such file or directory"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			errno.Lock()
			t.Cleanup(errno.Unlock)

			errno.Set(tc.err)
			got := errno.Get()
			if tc.err == nil {
				require.NoError(t, got, "Errno should be unset")
				return
			}
			require.ErrorIs(t, got, tc.err, "Errno is not matching")
			require.Equal(t, tc.wantMessage, got.Error(), "Errno message is not matching")
		})
	}
}
