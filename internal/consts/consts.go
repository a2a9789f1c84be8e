// Package consts defines the constants used by the project
package consts

import "github.com/ubuntu/gopasswd/log"

var (
	// Version is the version of the executable.
	Version = "Dev"
)

const (
	// DefaultLogLevel is the default logging level selected without any option.
	DefaultLogLevel = log.WarnLevel

	// DefaultShadowPath is the default path of the shadow credential store.
	DefaultShadowPath = "/etc/shadow"

	// DefaultPasswdPath is the default path of the passwd database.
	DefaultPasswdPath = "/etc/passwd"

	// DefaultConfigDir is the only directory where the configuration file is looked up.
	DefaultConfigDir = "/etc/gopasswd"
)

// Exit codes of passwd(1).
const (
	// ExitSuccess is returned on success.
	ExitSuccess = 0
	// ExitNoPerm is returned when permission is denied.
	ExitNoPerm = 1
	// ExitUsage is returned on an invalid combination of options.
	ExitUsage = 2
	// ExitFailure is returned on unexpected failure, nothing done.
	ExitFailure = 3
	// ExitBusy is returned when the account files are locked by another process.
	ExitBusy = 5
	// ExitBadArg is returned on an invalid argument to an option.
	ExitBadArg = 6
)
