package shadow

import (
	"math"
	"strconv"
)

type fieldState int

const (
	fieldEmpty fieldState = iota
	fieldSet
	fieldInvalid
)

// Days is a day count or a date in days since 1970-01-01.
//
// An empty or unparseable field has the value -1, which never constrains
// anything. The original text of an unparseable or non canonical field is
// kept so that it is written back unchanged.
type Days struct {
	value int64
	state fieldState
	raw   string
}

// NoDays is the empty day field.
var NoDays = Days{}

// NewDays returns a day field set to n. -1 returns the empty field.
func NewDays(n int64) Days {
	if n == -1 {
		return NoDays
	}
	return Days{value: n, state: fieldSet}
}

func parseDays(s string) Days {
	if s == "" {
		return NoDays
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Days{state: fieldInvalid, raw: s}
	}
	d := Days{value: n, state: fieldSet}
	// Keep non canonical forms, like "+1" or "007", as written.
	if strconv.FormatInt(n, 10) != s {
		d.raw = s
	}
	return d
}

// Value returns the day count, or -1 when the field is empty or invalid.
func (d Days) Value() int64 {
	if d.state != fieldSet {
		return -1
	}
	return d.value
}

// IsSet returns true if the field holds a valid number.
func (d Days) IsSet() bool {
	return d.state == fieldSet
}

// IsInvalid returns true if the field holds text which is not a number.
func (d Days) IsInvalid() bool {
	return d.state == fieldInvalid
}

// String formats the field as stored in the shadow file.
func (d Days) String() string {
	if d.raw != "" {
		return d.raw
	}
	if d.state == fieldSet {
		return strconv.FormatInt(d.value, 10)
	}
	return ""
}

// NoFlags is the value of an empty or unparseable reserved field.
const NoFlags = math.MaxUint64

// Flags is the reserved field of a shadow entry.
type Flags struct {
	value uint64
	state fieldState
	raw   string
}

func parseFlags(s string) Flags {
	if s == "" {
		return Flags{}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Flags{state: fieldInvalid, raw: s}
	}
	f := Flags{value: n, state: fieldSet}
	if strconv.FormatUint(n, 10) != s {
		f.raw = s
	}
	return f
}

// Value returns the flags, or [NoFlags] when the field is empty or invalid.
func (f Flags) Value() uint64 {
	if f.state != fieldSet {
		return NoFlags
	}
	return f.value
}

// IsSet returns true if the field holds a valid number.
func (f Flags) IsSet() bool {
	return f.state == fieldSet
}

// IsInvalid returns true if the field holds text which is not a number.
func (f Flags) IsInvalid() bool {
	return f.state == fieldInvalid
}

// String formats the field as stored in the shadow file.
func (f Flags) String() string {
	if f.raw != "" {
		return f.raw
	}
	if f.state == fieldSet {
		return strconv.FormatUint(f.value, 10)
	}
	return ""
}
