// Package shadow reads and rewrites the shadow password file.
package shadow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/log"
)

// ErrNotFound is returned when updating a record which does not exist.
var ErrNotFound = errors.New("user does not exist in the shadow file")

// Store is the ordered content of a shadow file.
type Store struct {
	records  []Record
	modified bool
}

// Load reads the shadow file at path. The file is read once, in order, and
// the first corrupted line aborts the load.
func Load(path string) (s *Store, err error) {
	defer decorate.OnError(&err, "could not load shadow file %q", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err = Parse(f)
	if err != nil {
		return nil, err
	}

	log.Debugf(context.Background(), "Loaded %d shadow entries from %q", len(s.records), path)
	return s, nil
}

// Parse reads shadow entries from r. Empty lines are ignored, but a line
// made of spaces is a corrupted entry.
func Parse(r io.Reader) (*Store, error) {
	s := &Store{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		record, err := ParseRecord(line)
		if err != nil {
			return nil, err
		}
		s.records = append(s.records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// Records returns a copy of the records, in file order.
func (s *Store) Records() []Record {
	records := make([]Record, len(s.records))
	copy(records, s.records)
	return records
}

// FindByName returns the first record with this login name.
func (s *Store) FindByName(name string) (Record, bool) {
	for _, r := range s.records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}

// Update calls fn on the first record with this login name. The record is
// only changed if fn succeeds.
func (s *Store) Update(name string, fn func(*Record) error) error {
	for i := range s.records {
		if s.records[i].Name != name {
			continue
		}

		r := s.records[i]
		if err := fn(&r); err != nil {
			return err
		}
		if r != s.records[i] {
			s.records[i] = r
			s.modified = true
		}
		return nil
	}

	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Modified returns true if a record changed since the store was loaded or saved.
func (s *Store) Modified() bool {
	return s.modified
}

// WriteTo writes the records in the shadow file format.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, r := range s.records {
		n, err := io.WriteString(w, r.String()+"\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
