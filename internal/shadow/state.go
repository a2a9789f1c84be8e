package shadow

import (
	"fmt"
	"strings"
)

// PasswordState is the state of an account password, derived from the
// password field.
type PasswordState int

const (
	// Passworded is an account with a usable password hash.
	Passworded PasswordState = iota
	// Locked is an account whose password field starts with '*' or '!'.
	Locked
	// NoPassword is an account which does not require a password.
	NoPassword
)

// Classify returns the state of the password field. Every value maps to
// exactly one state.
func Classify(password string) PasswordState {
	switch {
	case password == "":
		return NoPassword
	case strings.HasPrefix(password, "*"), strings.HasPrefix(password, "!"):
		return Locked
	}
	return Passworded
}

// String returns the abbreviation printed by passwd --status.
func (s PasswordState) String() string {
	switch s {
	case Locked:
		return "L"
	case NoPassword:
		return "NP"
	}
	return "P"
}

// MarshalText implements [encoding.TextMarshaler].
func (s PasswordState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *PasswordState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "P":
		*s = Passworded
	case "L":
		*s = Locked
	case "NP":
		*s = NoPassword
	default:
		return fmt.Errorf("unknown password state %q", text)
	}
	return nil
}
