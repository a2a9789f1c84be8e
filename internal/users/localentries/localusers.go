// Package localentries provides functions to retrieve the entries of the passwd database.
package localentries

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/internal/users/types"
	"github.com/ubuntu/gopasswd/log"
)

// Source selects where user entries are read from.
type Source string

const (
	// SourceFiles reads user entries from the passwd file only.
	SourceFiles Source = "files"
	// SourceNSS reads user entries through the NSS modules configured on the system.
	SourceNSS Source = "nss"
)

// ErrUserNotFound is returned when a user cannot be found.
var ErrUserNotFound = errors.New("user not found")

// ErrUnknownSource is returned when the user entries source is not supported.
var ErrUnknownSource = errors.New("unknown user entries source")

// Users returns all user entries from source. passwdPath is only used with [SourceFiles].
func Users(source Source, passwdPath string) ([]types.UserEntry, error) {
	switch source {
	case SourceFiles, "":
		return ParsePasswdFile(passwdPath)
	case SourceNSS:
		return getUserEntries()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

// ParsePasswdFile parses the passwd file at passwdFile.
// Invalid entries and NIS compat entries are skipped.
func ParsePasswdFile(passwdFile string) (entries []types.UserEntry, err error) {
	defer decorate.OnError(&err, "could not parse local passwd file %s", passwdFile)

	log.Debugf(context.Background(), "Parsing local passwd file: %s", passwdFile)

	f, err := os.Open(passwdFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The format of the local passwd file is:
	// username:password:uid:gid:gecos:home:shell
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '+' || line[0] == '-' {
			log.Debugf(context.Background(), "Skipping NIS compat entry in %s: %s", passwdFile, line)
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) != 7 {
			log.Warningf(context.Background(), "Skipping invalid entry in %s (invalid format): %s", passwdFile, line)
			continue
		}

		uid, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			log.Warningf(context.Background(), "Skipping invalid entry in %s (invalid UID): %s", passwdFile, line)
			continue
		}

		gid, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			log.Warningf(context.Background(), "Skipping invalid entry in %s (invalid GID): %s", passwdFile, line)
			continue
		}

		entry := types.UserEntry{
			Name:   fields[0],
			Passwd: fields[1],
			UID:    uint32(uid),
			GID:    uint32(gid),
			Gecos:  fields[4],
			Dir:    fields[5],
			Shell:  fields[6],
		}
		if err := entry.Validate(); err != nil {
			log.Warningf(context.Background(), "Skipping invalid entry in %s: %v", passwdFile, err)
			continue
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ByUID returns the first entry with the given UID.
func ByUID(entries []types.UserEntry, uid uint32) (types.UserEntry, error) {
	for _, e := range entries {
		if e.UID == uid {
			return e, nil
		}
	}
	return types.UserEntry{}, fmt.Errorf("%w: no user with UID %d", ErrUserNotFound, uid)
}

// ByName returns the first entry with the given name.
func ByName(entries []types.UserEntry, name string) (types.UserEntry, error) {
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return types.UserEntry{}, fmt.Errorf("%w: %q", ErrUserNotFound, name)
}
