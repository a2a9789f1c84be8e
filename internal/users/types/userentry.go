package types

import (
	"fmt"
	"strings"
)

// Validate validates the user entry values.
func (u UserEntry) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("user %q cannot have empty name", u)
	}

	for _, field := range []string{u.Name, u.Passwd, u.Gecos, u.Dir, u.Shell} {
		if strings.ContainsAny(field, ":\n") {
			return fmt.Errorf("user %q cannot contain ':' or newline characters (%q)", u.Name, field)
		}
	}

	return nil
}

// String formats the entry as a line of the passwd database.
func (u UserEntry) String() string {
	return fmt.Sprintf("%s:%s:%d:%d:%s:%s:%s", u.Name, u.Passwd, u.UID, u.GID, u.Gecos, u.Dir, u.Shell)
}
