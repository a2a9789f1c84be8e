package shadow

import (
	"errors"
	"fmt"
	"strings"
)

// nFields is the number of fields of a shadow entry:
// name:password:last_change:min:max:warn:inactive:expire:flags.
const nFields = 9

var (
	// ErrCorruptEntry is matched by every [CorruptEntryError].
	ErrCorruptEntry = errors.New("corrupted shadow entry")

	// ErrUnlockPasswordless is returned when unlocking would leave an empty password.
	ErrUnlockPasswordless = errors.New("unlocking the password would result in a passwordless account")

	// ErrInvalidDays is returned when setting a day field to a value lower than -1.
	ErrInvalidDays = errors.New("invalid number of days")
)

// CorruptEntryError is returned when a line of the shadow file is not a valid entry.
type CorruptEntryError struct {
	Line   string
	Reason string
}

func (e CorruptEntryError) Error() string {
	return fmt.Sprintf("%v (%s): %q", ErrCorruptEntry, e.Reason, e.Line)
}

// Is makes this error insensitive to the internal values.
func (e CorruptEntryError) Is(target error) bool {
	return target == ErrCorruptEntry || target == CorruptEntryError{}
}

// Record is an entry of the shadow file.
type Record struct {
	// Name is the login name.
	Name string
	// Password is the hashed password, or a locking sentinel.
	Password string

	// LastChange is the date of the last password change.
	LastChange Days
	// MinDays is the minimum number of days between password changes.
	MinDays Days
	// MaxDays is the maximum number of days between password changes.
	MaxDays Days
	// WarnDays is the number of days the user is warned before the password expires.
	WarnDays Days
	// InactiveDays is the number of days after expiration the password is still accepted.
	InactiveDays Days
	// Expire is the date when the account expires.
	Expire Days

	Flags Flags
}

// ParseRecord parses a line of the shadow file. The line must have exactly
// nine fields. Numeric fields which cannot be parsed are kept as invalid
// without failing the whole entry.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(line, ":")
	if len(fields) != nFields {
		return Record{}, CorruptEntryError{
			Line:   line,
			Reason: fmt.Sprintf("should have %d fields, got %d", nFields, len(fields)),
		}
	}
	if fields[0] == "" {
		return Record{}, CorruptEntryError{Line: line, Reason: "empty login name"}
	}

	return Record{
		Name:         fields[0],
		Password:     fields[1],
		LastChange:   parseDays(fields[2]),
		MinDays:      parseDays(fields[3]),
		MaxDays:      parseDays(fields[4]),
		WarnDays:     parseDays(fields[5]),
		InactiveDays: parseDays(fields[6]),
		Expire:       parseDays(fields[7]),
		Flags:        parseFlags(fields[8]),
	}, nil
}

// String formats the record as a line of the shadow file.
func (r Record) String() string {
	return strings.Join([]string{
		r.Name,
		r.Password,
		r.LastChange.String(),
		r.MinDays.String(),
		r.MaxDays.String(),
		r.WarnDays.String(),
		r.InactiveDays.String(),
		r.Expire.String(),
		r.Flags.String(),
	}, ":")
}

// State returns the state of the record password.
func (r Record) State() PasswordState {
	return Classify(r.Password)
}

// Lock disables password authentication by prefixing the password with '!'.
// An already locked password is left untouched.
func (r *Record) Lock() {
	if strings.HasPrefix(r.Password, "!") {
		return
	}
	r.Password = "!" + r.Password
}

// Unlock removes the '!' prefix added by [Record.Lock]. It fails if the
// account would end up without password.
func (r *Record) Unlock() error {
	if !strings.HasPrefix(r.Password, "!") {
		return nil
	}
	if r.Password == "!" {
		return ErrUnlockPasswordless
	}
	r.Password = r.Password[1:]
	return nil
}

// DeletePassword empties the password: the account no longer requires one.
func (r *Record) DeletePassword() {
	r.Password = ""
}

// ExpirePassword forces a password change at next login.
func (r *Record) ExpirePassword() {
	r.LastChange = NewDays(0)
}

// SetMinDays sets the minimum number of days between password changes.
// -1 removes the restriction.
func (r *Record) SetMinDays(n int64) error {
	return setDays(&r.MinDays, n)
}

// SetMaxDays sets the maximum number of days a password remains valid.
// -1 removes the restriction.
func (r *Record) SetMaxDays(n int64) error {
	return setDays(&r.MaxDays, n)
}

// SetWarnDays sets the number of days of warning before the password expires.
func (r *Record) SetWarnDays(n int64) error {
	return setDays(&r.WarnDays, n)
}

// SetInactiveDays sets the number of days after expiration before the
// account is disabled. -1 disables the feature.
func (r *Record) SetInactiveDays(n int64) error {
	return setDays(&r.InactiveDays, n)
}

func setDays(d *Days, n int64) error {
	if n < -1 {
		return fmt.Errorf("%w: %d", ErrInvalidDays, n)
	}
	*d = NewDays(n)
	return nil
}
