package localentries

/*
#include <stdlib.h>
#include <pwd.h>
*/
import "C"

import (
	"errors"
	"runtime"
	"sync"
	"syscall"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/internal/users/types"
)

var getpwentMu sync.Mutex

// getUserEntries returns all passwd entries known to NSS.
func getUserEntries() (entries []types.UserEntry, err error) {
	defer decorate.OnError(&err, "getpwent_r")

	// getpwent_r iterates over a process-wide cursor: serialize the calls.
	getpwentMu.Lock()
	defer getpwentMu.Unlock()

	C.setpwent()
	defer C.endpwent()

	var passwd C.struct_passwd
	var passwdPtr *C.struct_passwd
	buf := make([]C.char, 1024)

	pinner := runtime.Pinner{}
	defer pinner.Unpin()

	pinner.Pin(&passwd)
	pinner.Pin(&buf[0])

	for {
		ret := C.getpwent_r(&passwd, &buf[0], C.size_t(len(buf)), &passwdPtr)
		errno := syscall.Errno(ret)

		if errors.Is(errno, syscall.ERANGE) {
			buf = make([]C.char, len(buf)*2)
			pinner.Pin(&buf[0])
			continue
		}
		if errors.Is(errno, syscall.ENOENT) {
			return entries, nil
		}
		if !errors.Is(errno, syscall.Errno(0)) {
			return nil, errno
		}

		entries = append(entries, types.UserEntry{
			Name:   C.GoString(passwdPtr.pw_name),
			Passwd: C.GoString(passwdPtr.pw_passwd),
			UID:    uint32(passwdPtr.pw_uid),
			GID:    uint32(passwdPtr.pw_gid),
			Gecos:  C.GoString(passwdPtr.pw_gecos),
			Dir:    C.GoString(passwdPtr.pw_dir),
			Shell:  C.GoString(passwdPtr.pw_shell),
		})
	}
}
