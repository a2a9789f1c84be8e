// Package status reports the password state of accounts, in the format of
// passwd --status.
package status

import (
	"fmt"
	"io"

	"github.com/ubuntu/gopasswd/internal/shadow"
)

// NoSuchUser is printed when the account has no shadow entry.
const NoSuchUser = "No such user"

// Status is the password status of an account.
type Status struct {
	Name  string `yaml:"name"`
	Found bool   `yaml:"found"`

	State      shadow.PasswordState `yaml:"state"`
	LastChange int64                `yaml:"last_change"`
	Min        int64                `yaml:"min"`
	Max        int64                `yaml:"max"`
	Warn       int64                `yaml:"warn"`
	Inactive   int64                `yaml:"inactive"`
}

// FromRecord returns the status of a shadow entry.
func FromRecord(r shadow.Record) Status {
	return Status{
		Name:       r.Name,
		Found:      true,
		State:      r.State(),
		LastChange: r.LastChange.Value(),
		Min:        r.MinDays.Value(),
		Max:        r.MaxDays.Value(),
		Warn:       r.WarnDays.Value(),
		Inactive:   r.InactiveDays.Value(),
	}
}

// Lookup returns the status of the account name. A missing account is not
// an error: the returned status is not Found.
func Lookup(s *shadow.Store, name string) Status {
	r, found := s.FindByName(name)
	if !found {
		return Status{Name: name}
	}
	return FromRecord(r)
}

// All returns the status of every account, in file order.
func All(s *shadow.Store) []Status {
	records := s.Records()
	statuses := make([]Status, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, FromRecord(r))
	}
	return statuses
}

// String returns the status line: name, state, last change, min, max, warn
// and inactive days separated by spaces.
func (s Status) String() string {
	if !s.Found {
		return NoSuchUser
	}
	return fmt.Sprintf("%s %s %d %d %d %d %d", s.Name, s.State, s.LastChange, s.Min, s.Max, s.Warn, s.Inactive)
}

// Write prints one status line per status.
func Write(w io.Writer, statuses ...Status) error {
	for _, s := range statuses {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}
