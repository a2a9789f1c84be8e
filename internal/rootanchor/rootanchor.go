// Package rootanchor changes the root directory of the process, as done by the
// --root option of the shadow utilities.
package rootanchor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/log"
	"golang.org/x/sys/unix"
)

var (
	// ErrNotAbsolute is returned when the new root is not an absolute path.
	ErrNotAbsolute = errors.New("not an absolute path")

	// ErrInaccessible is returned when the new root cannot be accessed.
	ErrInaccessible = errors.New("cannot access directory")

	// ErrChangeRoot is returned when changing directory or root fails.
	ErrChangeRoot = errors.New("cannot change root directory")
)

type options struct {
	chdir  func(string) error
	chroot func(string) error
}

var defaultOptions = options{
	chdir:  os.Chdir,
	chroot: unix.Chroot,
}

// Option overrides Anchor default values.
type Option func(*options)

// Anchor makes path the root directory and the working directory of the
// process. There is no way back: the change lasts for the process lifetime.
//
// The working directory is changed before the root so that relative lookups
// already resolve inside the new root.
func Anchor(path string, args ...Option) (err error) {
	defer decorate.OnError(&err, "failed to chroot to %q", path)

	opts := defaultOptions
	for _, arg := range args {
		arg(&opts)
	}

	if !filepath.IsAbs(path) {
		return ErrNotAbsolute
	}

	// Do not resolve a trailing symlink: report what is really at path.
	if _, err := os.Lstat(path); err != nil {
		return fmt.Errorf("%w: %w", ErrInaccessible, err)
	}

	if err := opts.chdir(path); err != nil {
		return fmt.Errorf("%w: %w", ErrChangeRoot, err)
	}
	if err := opts.chroot(path); err != nil {
		return fmt.Errorf("%w: %w", ErrChangeRoot, err)
	}

	log.Debugf(context.Background(), "Root directory changed to %q", path)
	return nil
}
