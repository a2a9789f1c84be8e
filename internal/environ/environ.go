// Package environ removes from the environment the variables that could alter
// the behavior of a privileged process, and gives read access to what is left.
package environ

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/log"
)

// forbidden are removed whatever their value is.
var forbidden = []string{
	"_RLD_",
	"BASH_ENV",
	"ENV",
	"HOME",
	"IFS",
	"KRB_CONF",
	"LIBPATH",
	"MAIL",
	"NLSPATH",
	"PATH",
	"SHELL",
	"SHLIB_PATH",
}

// forbiddenPrefixes are removed whatever their value is.
var forbiddenPrefixes = []string{
	"LD_",
}

// noSlash are allowed, but only without path separators in their value, to
// work around gettext loading message catalogs from arbitrary paths.
var noSlash = []string{
	"LANG",
	"LANGUAGE",
}

// noSlashPrefixes are allowed, but only without path separators in their value.
var noSlashPrefixes = []string{
	"LC_",
}

// Sanitize removes from env the variables which could be used to hijack a
// privileged process. It returns the sorted names of the removed variables.
func Sanitize(env map[string]string) (removed []string) {
	for name, value := range env {
		if !isUnsafe(name, value) {
			continue
		}
		delete(env, name)
		removed = append(removed, name)
	}
	slices.Sort(removed)
	return removed
}

func isUnsafe(name, value string) bool {
	if slices.Contains(forbidden, name) || hasAnyPrefix(name, forbiddenPrefixes) {
		return true
	}

	if slices.Contains(noSlash, name) || hasAnyPrefix(name, noSlashPrefixes) {
		return strings.ContainsRune(value, '/')
	}

	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	return slices.ContainsFunc(prefixes, func(p string) bool {
		return strings.HasPrefix(s, p)
	})
}

// Snapshot is a read-only copy of a sanitized environment.
type Snapshot struct {
	vars map[string]string
}

// NewSnapshot sanitizes a copy of env and returns it as a Snapshot.
func NewSnapshot(env map[string]string) Snapshot {
	vars := maps.Clone(env)
	if vars == nil {
		vars = make(map[string]string)
	}
	Sanitize(vars)
	return Snapshot{vars: vars}
}

// SanitizeProcess removes the unsafe variables from the process environment
// and returns a snapshot of the remaining ones.
// It is expected to be called once, before any privileged action.
func SanitizeProcess() (s Snapshot, err error) {
	defer decorate.OnError(&err, "could not sanitize environment")

	env := Parse(os.Environ())
	removed := Sanitize(env)
	for _, name := range removed {
		if err := os.Unsetenv(name); err != nil {
			return Snapshot{}, fmt.Errorf("could not unset %q: %w", name, err)
		}
	}
	if len(removed) > 0 {
		log.Debugf(context.Background(), "Removed from environment: %s", strings.Join(removed, ", "))
	}

	s = Snapshot{vars: env}
	log.Debugf(context.Background(), "Kept in environment: %s", strings.Join(s.Names(), ", "))
	return s, nil
}

// Parse converts a list of "name=value" strings into a map. Entries without
// "=" are kept with an empty value. The first occurrence of a duplicated name
// wins, as with os.Getenv.
func Parse(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		name, value, _ := strings.Cut(e, "=")
		if name == "" {
			continue
		}
		if _, exists := env[name]; exists {
			continue
		}
		env[name] = value
	}
	return env
}

// Lookup returns the value of the variable name and whether it is set.
func (s Snapshot) Lookup(name string) (string, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Get returns the value of the variable name, or an empty string.
func (s Snapshot) Get(name string) string {
	return s.vars[name]
}

// Names returns the sorted names of the variables in the snapshot.
func (s Snapshot) Names() []string {
	return slices.Sorted(maps.Keys(s.vars))
}

// WithPrefix returns the variables whose name starts with prefix.
func (s Snapshot) WithPrefix(prefix string) map[string]string {
	r := make(map[string]string)
	for name, value := range s.vars {
		if strings.HasPrefix(name, prefix) {
			r[name] = value
		}
	}
	return r
}
