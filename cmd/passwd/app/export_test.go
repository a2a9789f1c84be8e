package app

import (
	"io"
	"testing"

	"github.com/ubuntu/gopasswd/internal/environ"
)

// WithGetuid overrides the function returning the real UID of the caller.
func WithGetuid(getuid func() int) Option {
	return func(o *options) {
		o.getuid = getuid
	}
}

// WithEnviron replaces the process environment by a sanitized copy of env.
func WithEnviron(env map[string]string) Option {
	return func(o *options) {
		o.sanitize = func() (environ.Snapshot, error) {
			return environ.NewSnapshot(env), nil
		}
	}
}

// WithAnchor overrides the function changing the root directory.
func WithAnchor(anchor func(path string) error) Option {
	return func(o *options) {
		o.anchor = anchor
	}
}

// WithStdout sets where the command output is written.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithConfigDir sets the directory where the configuration file is looked up.
func WithConfigDir(dir string) Option {
	return func(o *options) {
		o.configDir = dir
	}
}

// NewForTests creates a new App running with args. The configuration
// directory and the environment are empty unless overridden.
func NewForTests(t *testing.T, args []string, opts ...Option) *App {
	t.Helper()

	opts = append([]Option{
		WithConfigDir(t.TempDir()),
		WithEnviron(nil),
		WithAnchor(func(string) error {
			t.Fatal("Unexpected change of root directory")
			return nil
		}),
	}, opts...)

	a := New(opts...)
	a.rootCmd.SetArgs(args)
	return a
}

// Config returns the configuration loaded by the last run.
func (a App) Config() (shadow, passwd, usersSource string) {
	return a.config.Paths.Shadow, a.config.Paths.Passwd, a.config.UsersSource
}
