// Package types provides the entry types of the local user databases.
package types

// UserEntry is an entry of the passwd database.
type UserEntry struct {
	Name   string
	Passwd string
	UID    uint32
	GID    uint32
	Gecos  string
	Dir    string
	Shell  string
}
