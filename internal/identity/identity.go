// Package identity resolves the account of the user running the command.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/internal/consts"
	"github.com/ubuntu/gopasswd/internal/users/localentries"
	"github.com/ubuntu/gopasswd/internal/users/types"
	"github.com/ubuntu/gopasswd/log"
	"golang.org/x/sys/unix"
)

// ErrNotFound is returned when the invoking user has no account entry.
var ErrNotFound = errors.New("cannot determine your user name")

// Resolver maps users to their passwd entries.
type Resolver struct {
	source     localentries.Source
	passwdPath string
	getuid     func() int
}

type options struct {
	source     localentries.Source
	passwdPath string
	getuid     func() int
}

// Option overrides the Resolver default values.
type Option func(*options)

// WithSource selects where the passwd entries are read from.
func WithSource(source localentries.Source) Option {
	return func(o *options) {
		if source != "" {
			o.source = source
		}
	}
}

// WithPasswdPath overrides the path of the passwd file used by the files source.
func WithPasswdPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.passwdPath = path
		}
	}
}

// WithGetuid overrides the function returning the real UID of the process.
func WithGetuid(getuid func() int) Option {
	return func(o *options) {
		if getuid != nil {
			o.getuid = getuid
		}
	}
}

// NewResolver returns a Resolver reading the passwd database.
func NewResolver(args ...Option) Resolver {
	opts := options{
		source:     localentries.SourceFiles,
		passwdPath: consts.DefaultPasswdPath,
		getuid:     unix.Getuid,
	}
	for _, arg := range args {
		arg(&opts)
	}

	return Resolver{
		source:     opts.source,
		passwdPath: opts.passwdPath,
		getuid:     opts.getuid,
	}
}

// Current returns the entry of the real user of the process, whatever the
// effective user is.
func (r Resolver) Current() (u types.UserEntry, err error) {
	uid := r.getuid()
	defer decorate.OnError(&err, "could not resolve current user (UID %d)", uid)

	entries, err := localentries.Users(r.source, r.passwdPath)
	if err != nil {
		return types.UserEntry{}, err
	}

	if uid < 0 {
		return types.UserEntry{}, fmt.Errorf("%w: invalid UID", ErrNotFound)
	}
	u, err = localentries.ByUID(entries, uint32(uid))
	if errors.Is(err, localentries.ErrUserNotFound) {
		log.Warningf(context.Background(), "Cannot determine the user name of the caller (UID %d)", uid)
		return types.UserEntry{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return types.UserEntry{}, err
	}

	log.Debugf(context.Background(), "Current user is %q (UID %d)", u.Name, uid)
	return u, nil
}

// Lookup returns the entry of the user name. It returns an error wrapping
// [localentries.ErrUserNotFound] if there is none.
func (r Resolver) Lookup(name string) (u types.UserEntry, err error) {
	defer decorate.OnError(&err, "could not look up user %q", name)

	entries, err := localentries.Users(r.source, r.passwdPath)
	if err != nil {
		return types.UserEntry{}, err
	}

	return localentries.ByName(entries, name)
}
